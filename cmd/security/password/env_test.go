package password

import (
	"os"
	"testing"
)

// unsetAll removes every package env var for the duration of the test.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}
