// Package testutils provides helpers shared by interception tests.
package testutils

import (
	"io/fs"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/charlievieth/fastwalk"
	"gotest.tools/v3/assert"
)

// OpenFDs returns the numeric file descriptors currently open in this
// process, sorted ascending. Descriptors held only by the enumeration
// itself are gone by the time it returns, and are filtered back out.
func OpenFDs(t *testing.T) []int {
	t.Helper()

	var (
		mu  sync.Mutex
		fds []int
	)
	// fastwalk runs the callback from multiple goroutines.
	err := fastwalk.Walk(&fastwalk.DefaultConfig, "/proc/self/fd", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		n, convErr := strconv.Atoi(d.Name())
		if convErr != nil {
			return nil
		}
		mu.Lock()
		fds = append(fds, n)
		mu.Unlock()
		return nil
	})
	assert.NilError(t, err)

	open := fds[:0]
	for _, fd := range fds {
		if _, statErr := os.Stat("/proc/self/fd/" + strconv.Itoa(fd)); statErr == nil {
			open = append(open, fd)
		}
	}
	sort.Ints(open)
	return open
}
