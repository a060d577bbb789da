//go:build !linux

package intercept

import (
	cerrdefs "github.com/containerd/errdefs"
	"github.com/pkg/errors"
)

// DefaultHostOps fails on platforms without the raw entropy syscalls; inject
// HostOps explicitly instead.
func DefaultHostOps() (HostOps, error) {
	return nil, errors.Wrap(cerrdefs.ErrNotImplemented, "host entropy operations")
}
