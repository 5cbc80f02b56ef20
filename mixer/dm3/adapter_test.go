package dm3

import (
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FPtrevi/MidiControl/devices/devicestesting"
	"github.com/FPtrevi/MidiControl/mixer"
)

func newTestAdapter(t *testing.T) (*Adapter, *devicestesting.MockOscClient) {
	t.Helper()
	client := devicestesting.NewMockOscClient()
	return New(mixer.DefaultDM3Profile(), oscSender{client}), client
}

// oscSender adapts the packet-level mock to the adapter's message contract.
type oscSender struct {
	client *devicestesting.MockOscClient
}

func (s oscSender) SendMessage(msg *osc.Message) error {
	return s.client.Send(msg)
}

func TestMutePolarityIsInverted(t *testing.T) {
	tests := []struct {
		name     string
		intent   mixer.Mute
		wantAddr string
		wantArg  int32
	}{
		{
			name:     "mute channel 1 writes 0",
			intent:   mixer.Mute{Channel: 0, On: true},
			wantAddr: "/yosc:req/set/MIXER:Current/InCh/Fader/On/1/1",
			wantArg:  0,
		},
		{
			name:     "unmute channel 16 writes 1",
			intent:   mixer.Mute{Channel: 15, On: false},
			wantAddr: "/yosc:req/set/MIXER:Current/InCh/Fader/On/16/1",
			wantArg:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, client := newTestAdapter(t)

			require.NoError(t, a.Apply(tt.intent))
			sent := client.GetSentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantAddr, sent[0].Address)
			assert.Equal(t, []interface{}{tt.wantArg}, sent[0].Arguments)
		})
	}
}

func TestMuteRange(t *testing.T) {
	a, client := newTestAdapter(t)

	assert.True(t, mixer.IsValidation(a.Apply(mixer.Mute{Channel: 16, On: true})))
	assert.Empty(t, client.GetSentMessages())
}

func TestRecallSceneUsesZeroBasedIndex(t *testing.T) {
	a, client := newTestAdapter(t)

	// Note 4 on the scene channel means scene 5, which the console
	// addresses as index 4.
	require.NoError(t, a.Apply(mixer.RecallScene{Scene: 5}))
	sent := client.GetSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "/yosc:req/ssrecall_ex", sent[0].Address)
	assert.Equal(t, []interface{}{"scene_a", int32(4)}, sent[0].Arguments)
}

func TestRecallSceneRange(t *testing.T) {
	a, client := newTestAdapter(t)

	assert.True(t, mixer.IsValidation(a.Apply(mixer.RecallScene{Scene: 0})))
	assert.True(t, mixer.IsValidation(a.Apply(mixer.RecallScene{Scene: 101})))
	assert.Empty(t, client.GetSentMessages())
}

func TestUDKTriggerOnPressOnly(t *testing.T) {
	a, client := newTestAdapter(t)

	require.NoError(t, a.Apply(mixer.PressSoftKey{Key: 0, Pressed: true}))
	require.NoError(t, a.Apply(mixer.PressSoftKey{Key: 0, Pressed: false}))

	sent := client.GetSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "/yosc:req/trigger/UserDefinedKey/1", sent[0].Address)
	assert.Empty(t, sent[0].Arguments)
}

func TestUDKRange(t *testing.T) {
	a, client := newTestAdapter(t)

	assert.True(t, mixer.IsValidation(a.Apply(mixer.PressSoftKey{Key: 16, Pressed: true})))
	assert.Empty(t, client.GetSentMessages())
}

func TestSetLevelMapsToFaderScale(t *testing.T) {
	tests := []struct {
		name    string
		value   uint8
		wantArg int32
	}{
		{name: "0 is the floor", value: 0, wantArg: -32768},
		{name: "127 is the ceiling", value: 127, wantArg: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, client := newTestAdapter(t)

			require.NoError(t, a.Apply(mixer.SetLevel{Channel: 2, Value: tt.value}))
			sent := client.GetSentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, "/yosc:req/set/MIXER:Current/InCh/Fader/Level/3/1", sent[0].Address)
			assert.Equal(t, []interface{}{tt.wantArg}, sent[0].Arguments)
		})
	}
}

func TestSendFailurePropagates(t *testing.T) {
	a, client := newTestAdapter(t)
	client.SetError(true)

	assert.Error(t, a.Apply(mixer.Mute{Channel: 0, On: true}))
}
