// Package errs defines the error taxonomy shared by the command and
// interaction boundaries. Expected business outcomes (not allowed,
// duplicate, threshold unmet) are never errors; they are decision values.
package errs

import "errors"

// UserFacing marks an error whose message is safe to show to the acting
// user as an ephemeral reply.
type UserFacing struct {
	Msg string
	Err error
}

func (e *UserFacing) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *UserFacing) Unwrap() error { return e.Err }

// NewUserFacing builds a UserFacing error wrapping cause (cause may be nil).
func NewUserFacing(msg string, cause error) error {
	return &UserFacing{Msg: msg, Err: cause}
}

// UserMessage extracts the reportable message from err, or returns a
// generic fallback. Infrastructure details never leak to chat.
func UserMessage(err error) string {
	var uf *UserFacing
	if errors.As(err, &uf) {
		return uf.Msg
	}
	return "Something went wrong. Please try again later."
}
