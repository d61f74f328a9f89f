package state

import "errors"

// topology invariant violations, these abort a computation pass
var (
	ErrBridgedPortAddressed = errors.New("bridged port carries a network address")
	ErrMissingInterface     = errors.New("participating node has no interface on the link")
	ErrL2Loop               = errors.New("l2 forwarding loop")
	ErrDuplicateAddress     = errors.New("duplicate router address on l2 domain")
	ErrUnknownNode          = errors.New("node does not participate in global routing")
)

// expected negative outcomes
var (
	ErrNoRoute            = errors.New("no route to host")
	ErrNotHandled         = errors.New("destination not handled by global routing")
	ErrForwardingDisabled = errors.New("forwarding disabled on input interface")
)
