package capability

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"securesock/internal/session"
)

// execWaitDelay bounds how long Handle waits for the stream copy
// goroutines once the child has exited.
const execWaitDelay = time.Second

// Exec wires a TLS stream to a child process's stdio.
// Either Program (-e) or Command (-c) must be set.
type Exec struct {
	Program string // -e: execute a program directly
	Command string // -c: execute via the system shell
}

// Handle starts the child process with its stdin/stdout/stderr
// connected to the session's stream.
func (e *Exec) Handle(ctx context.Context, sess *session.Session) error {
	var cmd *exec.Cmd

	switch {
	case e.Command != "":
		if runtime.GOOS == "windows" {
			cmd = exec.CommandContext(ctx, "cmd.exe", "/C", e.Command)
		} else {
			cmd = exec.CommandContext(ctx, "/bin/sh", "-c", e.Command)
		}
	case e.Program != "":
		cmd = exec.CommandContext(ctx, e.Program)
	default:
		return fmt.Errorf("no command specified for exec mode")
	}

	cmd.Stdin = sess.Conn
	cmd.Stdout = sess.Conn
	cmd.Stderr = sess.Conn
	// The stdin copy blocks on the stream until the peer sends more;
	// don't let it hold Wait after the child is gone.
	cmd.WaitDelay = execWaitDelay

	sess.Logger.Info("exec: %s", cmd.String())

	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("exec %q: %w", cmd.Path, err)
	}
	// Let the peer see EOF for the child's output.
	sess.Conn.CloseWrite() //nolint:errcheck
	return nil
}
