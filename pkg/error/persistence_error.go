package error

import "net/http"

// PersistenceError reports that the schedule file or media directory could
// not be read or written.
type PersistenceError string

func (err PersistenceError) Error() string {
	return string(err)
}

func (err PersistenceError) ErrCode() string {
	return "PERSISTENCE_ERROR"
}

func (err PersistenceError) StatusCode() int {
	return http.StatusInternalServerError
}

// SendFailure wraps an error raised by the WhatsApp send capability.
type SendFailure struct {
	PostID string
	Err    error
}

func (err SendFailure) Error() string {
	return "failed to send status " + err.PostID + ": " + err.Err.Error()
}

func (err SendFailure) Unwrap() error {
	return err.Err
}

func (err SendFailure) ErrCode() string {
	return "SEND_FAILURE"
}

func (err SendFailure) StatusCode() int {
	return http.StatusBadGateway
}
