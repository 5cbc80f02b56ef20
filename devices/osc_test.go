package devices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FPtrevi/MidiControl/devices/devicestesting"
	"github.com/FPtrevi/MidiControl/mixer"
)

func newTestOSCTransport(pingErr error) (*OSCTransport, *devicestesting.MockOscClient) {
	prober := NewProber()
	prober.ping = func(host string, timeout time.Duration) error {
		return pingErr
	}
	client := devicestesting.NewMockOscClient()
	tr := NewOSCTransport("192.0.2.9", 49900, prober)
	tr.newClient = func(host string, port int) OscClient {
		return client
	}
	return tr, client
}

func TestOSCOpenSendsHello(t *testing.T) {
	tr, client := newTestOSCTransport(nil)

	require.NoError(t, tr.Open(context.Background()))
	sent := client.GetSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "/test_connection", sent[0].Address)
	assert.Equal(t, []interface{}{"ping"}, sent[0].Arguments)
}

func TestOSCOpenFailsWhenHostUnreachable(t *testing.T) {
	tr, client := newTestOSCTransport(errors.New("no echo reply"))

	err := tr.Open(context.Background())
	assert.True(t, mixer.IsConnect(err))
	assert.Empty(t, client.GetSentMessages())

	var ce *mixer.ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ping", ce.Stage)
}

func TestOSCHelloFailureDoesNotAbortOpen(t *testing.T) {
	tr, client := newTestOSCTransport(nil)
	client.SetError(true)

	// UDP gives no delivery guarantee anyway; a failed hello is only noise.
	require.NoError(t, tr.Open(context.Background()))
	client.SetError(false)
	assert.NoError(t, tr.SendMessage(osc.NewMessage("/yosc:req/trigger/UserDefinedKey/1")))
}

func TestOSCSendRequiresOpen(t *testing.T) {
	tr, _ := newTestOSCTransport(nil)

	err := tr.SendMessage(osc.NewMessage("/yosc:req/ssrecall_ex"))
	assert.True(t, mixer.IsSend(err))
	assert.ErrorIs(t, err, mixer.ErrNotConnected)
}

func TestOSCCloseDropsClient(t *testing.T) {
	tr, _ := newTestOSCTransport(nil)
	require.NoError(t, tr.Open(context.Background()))
	require.NoError(t, tr.Close())

	err := tr.SendMessage(osc.NewMessage("/test_connection"))
	assert.ErrorIs(t, err, mixer.ErrNotConnected)
}
