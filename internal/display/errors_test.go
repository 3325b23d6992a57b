package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayError(t *testing.T) {
	cause := errors.New("no wayland display")

	tests := []struct {
		name string
		err  *DisplayError
		want string
	}{
		{"message only", &DisplayError{Message: "compositor does not support wlr-layer-shell"}, "compositor does not support wlr-layer-shell"},
		{"with cause", &DisplayError{Message: "failed to load stylesheet", Cause: cause}, "failed to load stylesheet: no wayland display"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.err.Cause, tt.err.Unwrap())
		})
	}

	var err error = &DisplayError{Message: "wrapped", Cause: cause}
	assert.ErrorIs(t, err, cause)
}
