package iotrace

// Sink consumes trace records. Wrappers call Submit synchronously after
// every forwarded operation and never examine the outcome: submission is
// fire-and-forget, and a failing or no-op sink must not change wrapper
// behavior. Implementations must be safe for concurrent use by any number
// of wrapper instances; records from concurrent operations may arrive in
// any interleaving.
type Sink interface {
	Submit(rec Record)
}
