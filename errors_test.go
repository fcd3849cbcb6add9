package astiremux

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := NewError(ErrWriteFailed, errors.New("Broken pipe"), "writing packet #%d", 3)
	assert.Equal(t, "astiremux: writing packet #3 failed: Broken pipe", err.Error())
	assert.True(t, errors.Is(err, ErrWriteFailed))
	assert.False(t, errors.Is(err, ErrReadFailed))
	assert.Equal(t, "Broken pipe", errors.Unwrap(err).Error())

	err = NewError(ErrNoVideoStream, nil, "selecting stream of %s", "in.mp4")
	assert.Equal(t, "astiremux: selecting stream of in.mp4 failed: astiremux: no video stream", err.Error())

	var e *Error
	wrapped := NewError(ErrReadFailed, io.ErrUnexpectedEOF, "reading")
	assert.True(t, errors.As(wrapped, &e))
	assert.True(t, errors.Is(wrapped, io.ErrUnexpectedEOF))
}
