// Package errsink surfaces the last error code through an environment
// variable, matching original_source/insert/insert.c's seterr()
// exactly: try the configured variable, fall back to PATH, and unset
// PATH as a last resort if neither has room.
package errsink

import (
	"fmt"
	"os"
)

// Sink writes the absolute value of the last error code into an
// environment variable so a supervising process can observe it.
type Sink struct {
	varName string
	width   int
}

// New builds a Sink that writes codes as zero-padded decimal strings of
// exactly width digits, preferring varName and falling back to PATH.
func New(varName string, width int) *Sink {
	return &Sink{varName: varName, width: width}
}

// Record writes |code| into the first of [varName, PATH] whose current
// value already holds at least width characters — mirroring the
// original's in-place buffer overwrite, which required the destination
// to already be long enough. If neither qualifies, PATH is unset as the
// last-resort signal.
func (s *Sink) Record(code int) {
	abs := code
	if abs < 0 {
		abs = -abs
	}
	encoded := fmt.Sprintf("%0*d", s.width, abs)

	for _, name := range []string{s.varName, "PATH"} {
		existing, ok := os.LookupEnv(name)
		if !ok || len(existing) < len(encoded) {
			continue
		}
		_ = os.Setenv(name, encoded+existing[len(encoded):])
		return
	}
	_ = os.Unsetenv("PATH")
}
