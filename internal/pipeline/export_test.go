package pipeline

// Exports for testing.
var (
	Dispatch = dispatch
	Order    = order
)
