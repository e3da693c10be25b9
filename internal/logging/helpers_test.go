package logging

import (
	"os"
	"testing"
)

// unsetNoColor removes NO_COLOR for the duration of the test.
func unsetNoColor(t *testing.T) {
	t.Helper()
	prev, had := os.LookupEnv("NO_COLOR")
	os.Unsetenv("NO_COLOR")
	t.Cleanup(func() {
		if had {
			os.Setenv("NO_COLOR", prev)
		}
	})
}
