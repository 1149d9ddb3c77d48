package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

type Result struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

var ErrTimeout = errors.New("command timed out")

func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Env = []string{"PATH=/usr/sbin:/usr/bin:/sbin:/bin", "LANG=C", "LC_ALL=C"}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	res := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes(), Code: exitCode(err)}
	if cctx.Err() == context.DeadlineExceeded {
		return res, ErrTimeout
	}
	return res, err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// CmdRunner executes external status tools with a per-command timeout.
type CmdRunner struct {
	Timeout time.Duration
}

func (r CmdRunner) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 10 * time.Second
}

// Run returns the command's stdout. A nonzero exit still yields whatever
// output was produced; callers decide whether partial output is usable.
func (r CmdRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	res, err := Run(ctx, r.timeout(), name, args...)
	return string(res.Stdout), err
}

// Exists reports whether name resolves to an executable, either via PATH
// or as an absolute path.
func (r CmdRunner) Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
