//go:build !linux

package einkfb

import (
	"runtime"

	"github.com/pkg/errors"
)

// openFramebuffer always fails off Linux; use OpenWith or the virtual screen.
func openFramebuffer(path string) (Framebuffer, error) {
	return nil, errors.Errorf("open %s: framebuffer devices are not supported on %s", path, runtime.GOOS)
}
