package errcode

// Error code convention:
// - 0: no error
// - 4xxx: recoverable business warnings (flow continued)
// - 5xxx: system errors (flow aborted)
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)
