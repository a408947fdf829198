package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Code string `json:"code" validate:"required,alphanum_"`
}

type outer struct {
	Name  string  `json:"name" validate:"required"`
	Items []inner `json:"items" validate:"dive"`
}

func TestTranslateValidationErrors(t *testing.T) {
	validate, translator := NewValidator()

	tests := []struct {
		name string
		in   outer
		want []FieldError
	}{
		{name: "valid", in: outer{Name: "x", Items: []inner{{Code: "a_b-c 1"}}}},
		{
			name: "required",
			in:   outer{},
			want: []FieldError{{Field: "name", Error: "this field is required"}},
		},
		{
			name: "nested",
			in:   outer{Name: "x", Items: []inner{{Code: "ok"}, {Code: "n/a"}}},
			want: []FieldError{{Field: "items[1].code", Error: alphaNumUnderText}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateValidationErrors(validate.Struct(tt.in), translator)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.want, vErr.Fields)
		})
	}
}

func TestTranslateValidationErrors_passThrough(t *testing.T) {
	err := errors.New("lol")
	assert.Equal(t, err, TranslateValidationErrors(err, nil))
	assert.NoError(t, TranslateValidationErrors(nil, nil))
}
