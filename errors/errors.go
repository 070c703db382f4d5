package errors

import "fmt"

var (
	ErrInvalidUsername  = fmt.Errorf("invalid username")
	ErrInvalidMessage   = fmt.Errorf("invalid message")
	ErrStoreUnavailable = fmt.Errorf("message store unavailable")
	ErrNotReady         = fmt.Errorf("session not ready")
	ErrUnknownSession   = fmt.Errorf("unknown session")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
)
