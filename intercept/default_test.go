package intercept

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

// The default engine is shared process-wide, so this test only asserts
// behavior that holds at any stream offset.
func TestDefaultEngine(t *testing.T) {
	assert.Check(t, Default() == Default())

	buf := make([]byte, 8)
	n, err := Getrandom(buf, 0)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, 8))
	assert.NilError(t, Getentropy(buf))
}
