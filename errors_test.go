package ioc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainerError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ContainerError
		expected string
	}{
		{
			name:     "kind only",
			err:      &ContainerError{Kind: ErrNotFound, ID: "app.Cache"},
			expected: "instance not found: app.Cache",
		},
		{
			name:     "message overrides kind",
			err:      &ContainerError{Kind: ErrUnknownType, ID: "app.Cache.Get", Message: "unknown method"},
			expected: "unknown method: app.Cache.Get",
		},
		{
			name:     "parameter and source",
			err:      &ContainerError{Kind: ErrInvalidArgument, ID: "app.New", Param: "#1", SourceError: errors.New("cannot use string as int")},
			expected: "invalid argument: app.New (parameter #1) (cannot use string as int)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestContainerError_IsAndUnwrap(t *testing.T) {
	source := errors.New("source")
	err := fmt.Errorf("wrapped: %w", &ContainerError{Kind: ErrPropertyAssignment, ID: "x", SourceError: source})

	assert.ErrorIs(t, err, ErrPropertyAssignment)
	assert.ErrorIs(t, err, source)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.False(t, (&ContainerError{}).Is(ErrNotFound))
}
