package intercept

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/detentropy/detentropy/internal/testutils"
	"github.com/detentropy/detentropy/mtrand"
)

func TestURandomDeterministicOnHost(t *testing.T) {
	e := New()

	fd, err := e.Open("/dev/urandom", unix.O_RDONLY, 0)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(e.Tracked(), 1))

	got := make([]byte, 32)
	n, err := e.Read(fd, got)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, 32))

	want := make([]byte, 32)
	mtrand.New(DefaultSeed + uint64(fd)).Fill(want)
	assert.Check(t, bytes.Equal(got, want))

	assert.NilError(t, e.Close(fd))
	assert.Check(t, is.Equal(e.Tracked(), 0))

	// The descriptor is really closed, so the forwarded read fails the
	// way any read on a closed descriptor does.
	_, err = e.Read(fd, got)
	assert.Check(t, is.ErrorIs(err, unix.EBADF))
}

func TestCapacityConsumesNoDescriptor(t *testing.T) {
	e := New()

	fds := make([]int, 0, maxTrackedHandles)
	for i := 0; i < maxTrackedHandles; i++ {
		fd, err := e.Open("/dev/urandom", unix.O_RDONLY, 0)
		assert.NilError(t, err)
		fds = append(fds, fd)
	}

	before := testutils.OpenFDs(t)
	_, err := e.Open("/dev/urandom", unix.O_RDONLY, 0)
	assert.Check(t, is.ErrorIs(err, unix.EMFILE))
	after := testutils.OpenFDs(t)
	assert.Check(t, is.DeepEqual(before, after))

	for _, fd := range fds {
		assert.NilError(t, e.Close(fd))
	}
}

func TestUnmatchedOpenReadsRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	assert.NilError(t, os.WriteFile(path, []byte("not random at all"), 0o600))

	e := New()
	fd, err := e.Open(path, unix.O_RDONLY, 0)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(e.Tracked(), 0))

	buf := make([]byte, 64)
	n, err := e.Read(fd, buf)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(string(buf[:n]), "not random at all"))
	assert.NilError(t, e.Close(fd))
}

func TestHostGetentropyLimit(t *testing.T) {
	ops, err := DefaultHostOps()
	assert.NilError(t, err)
	assert.Check(t, is.ErrorIs(ops.Getentropy(make([]byte, 257)), unix.EIO))
	assert.NilError(t, ops.Getentropy(make([]byte, 256)))
	assert.NilError(t, ops.Getentropy(nil))
}
