package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	errDup := errors.New("duplicate")

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "cause", err: NewValidationError(errDup, FieldError{Field: "id", Error: "taken"}), wantMsg: "duplicate"},
		{name: "fields", err: NewValidationError(nil, FieldError{Field: "id", Error: "taken"}, FieldError{Field: "name", Error: "required"}), wantMsg: "id: taken; name: required"},
		{name: "empty", err: NewValidationError(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, IsValidationError(tt.err))
			assert.True(t, IsValidationError(errors.Wrap(tt.err, "wrapped")))
		})
	}

	assert.True(t, errors.Is(errors.Wrap(NewValidationError(errDup), "creating"), errDup))
	assert.False(t, IsValidationError(errDup))
}

func TestShutdownError(t *testing.T) {
	err := NewShutdownError("integrity issue")
	assert.EqualError(t, err, "shutdown requested: integrity issue")
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "wrapped")))
	assert.False(t, IsShutdown(errors.New("integrity issue")))
}
