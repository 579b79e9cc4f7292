// Package media wraps the ffmpeg and ffprobe command lines behind typed
// operations. Every operation builds an argv, runs it through a Runner,
// and surfaces stderr in the returned error; tests substitute a fake
// Runner to assert on the exact command without touching ffmpeg.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes the command and returns stdout. On failure the error
// includes the trailing portion of stderr, which is where ffmpeg reports
// what actually went wrong.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, tail(stderr.Bytes(), 512))
	}
	return stdout.Bytes(), nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return bytes.TrimSpace(b)
	}
	return bytes.TrimSpace(b[len(b)-n:])
}
