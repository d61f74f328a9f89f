package state

const (
	// DefaultMetric is the cost of an interface that does not configure one
	DefaultMetric = uint16(1)
	// MaxTraceHops bounds PrintRoute so a forwarding loop terminates
	MaxTraceHops = 64
	// NoInterface is passed as the interface hint when the caller has none
	NoInterface = -1
)
