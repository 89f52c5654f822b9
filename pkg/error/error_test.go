package error

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_ImplementGenericError(t *testing.T) {
	cases := []struct {
		err    GenericError
		code   string
		status int
	}{
		{ValidationError("cannot schedule in the past"), "VALIDATION_ERROR", http.StatusBadRequest},
		{NotFoundError("post 7 not found"), "NOT_FOUND_ERROR", http.StatusNotFound},
		{PersistenceError("disk full"), "PERSISTENCE_ERROR", http.StatusInternalServerError},
		{SendFailure{PostID: "3", Err: errors.New("offline")}, "SEND_FAILURE", http.StatusBadGateway},
	}

	for _, c := range cases {
		assert.Equal(t, c.code, c.err.ErrCode())
		assert.Equal(t, c.status, c.err.StatusCode())
		assert.NotEmpty(t, c.err.Error())
	}
}

func TestSendFailure_Unwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := error(SendFailure{PostID: "9", Err: cause})

	assert.True(t, errors.Is(err, cause))

	var sf SendFailure
	assert.True(t, errors.As(err, &sf))
	assert.Equal(t, "9", sf.PostID)
}
