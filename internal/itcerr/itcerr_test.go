// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package itcerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cfg := Config("central wavelength must be between %d nm and %d nm", 300, 1000)
	internal := Internal("detector", "unknown kind %q", "CMOS")

	assert.True(t, IsConfig(cfg))
	assert.False(t, IsInternal(cfg))
	assert.Equal(t, "central wavelength must be between 300 nm and 1000 nm", cfg.Error())

	assert.True(t, IsInternal(internal))
	assert.False(t, IsConfig(internal))
	assert.Equal(t, `internal error in detector: unknown kind "CMOS"`, internal.Error())
}

func TestKindsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("ccd 2: %w", Config("no grating"))
	assert.True(t, IsConfig(wrapped))

	cause := errors.New("length mismatch")
	ie := &InternalError{Err: cause}
	assert.ErrorIs(t, fmt.Errorf("slit 0: %w", ie), cause)
	assert.Equal(t, "internal error: length mismatch", ie.Error())
}
