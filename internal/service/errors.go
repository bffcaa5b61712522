package service

import "fmt"

// BadRequest marks a failure caused by the caller: malformed input, a
// missing record, or a conflicting one. Handlers surface the message as-is
// with a 400 status; every other error is logged and reported as a generic
// implementation error.
type BadRequest struct {
	Message string
}

func (e BadRequest) Error() string {
	return e.Message
}

func badRequestf(format string, args ...any) error {
	return BadRequest{Message: fmt.Sprintf(format, args...)}
}
