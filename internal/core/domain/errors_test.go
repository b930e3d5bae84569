package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrMalformedElement", ErrMalformedElement},
		{"ErrUnparseableInput", ErrUnparseableInput},
		{"ErrStoreClosed", ErrStoreClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrMalformedElement_Wrapped(t *testing.T) {
	err := fmt.Errorf("node 42: missing attribute %q: %w", "uid", ErrMalformedElement)
	assert.True(t, errors.Is(err, ErrMalformedElement))
	assert.False(t, errors.Is(err, ErrUnparseableInput))
	assert.Contains(t, err.Error(), "malformed element")
}

func TestErrors_Distinct(t *testing.T) {
	assert.NotEqual(t, ErrNotFound, ErrInvalidInput)
	assert.NotEqual(t, ErrMalformedElement, ErrUnparseableInput)
}
