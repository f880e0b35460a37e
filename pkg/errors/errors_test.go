package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeExtraction(t *testing.T) {
	err := NotFound("deadline", nil)
	assert.Equal(t, ErrNotFound, Code(err))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrBadRequest))
}

func TestCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("failed to load deadline: %w", NotFound("deadline", nil))
	assert.True(t, Is(err, ErrNotFound))
}

func TestCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, ErrInternal, Code(stderrors.New("plain error")))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ChannelDelivery("email", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "delivery via email failed")
	assert.Contains(t, err.Error(), "connection refused")
}
