package bridge

// ConnectionState tracks one mixer link as observed by the health monitor.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	// StateUnstable means at least one probe failed but the failure budget
	// is not yet exhausted.
	StateUnstable
	// StateFailed is terminal for a session: the failure budget ran out and
	// the monitor stopped probing.
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateUnstable:
		return "unstable"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ServiceState tracks the bridge service lifecycle. Shutdown is terminal.
type ServiceState int

const (
	ServiceUninitialized ServiceState = iota
	ServiceReady
	ServiceConnecting
	ServiceConnected
	ServiceDisconnecting
	ServiceShutdown
)

func (s ServiceState) String() string {
	switch s {
	case ServiceUninitialized:
		return "uninitialized"
	case ServiceReady:
		return "ready"
	case ServiceConnecting:
		return "connecting"
	case ServiceConnected:
		return "connected"
	case ServiceDisconnecting:
		return "disconnecting"
	case ServiceShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
