package error

import "net/http"

// ValidationError is returned when user input cannot be accepted.
// Nothing is mutated when it is returned.
type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}
