package bridge

import (
	"github.com/google/uuid"

	"github.com/FPtrevi/MidiControl/devices"
	"github.com/FPtrevi/MidiControl/mixer"
)

// session bundles everything tied to one mixer connection. A new session id
// is minted per connect so stale callbacks (a monitor firing during
// teardown, a dispatch error racing a reconnect) can be matched against the
// session they belong to and discarded otherwise.
type session struct {
	id        uuid.UUID
	profile   mixer.Profile
	transport devices.Transport
	adapter   mixer.Adapter
	monitor   *Monitor
}

func newSession(profile mixer.Profile, transport devices.Transport, adapter mixer.Adapter) *session {
	return &session{
		id:        uuid.New(),
		profile:   profile,
		transport: transport,
		adapter:   adapter,
	}
}
