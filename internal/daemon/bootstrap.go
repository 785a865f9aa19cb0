package daemon

import (
	"fmt"
	"os"
	"os/exec"
)

// RunCommand is the hidden CLI command a detached instance is started with.
const RunCommand = "run"

// DetachedCommand builds the self-exec command for a background instance.
// The child gets no stdio and its own session or process group.
func DetachedCommand(executable string, args ...string) *exec.Cmd {
	cmd := exec.Command(executable, append([]string{RunCommand}, args...)...)
	cmd.SysProcAttr = detachedAttr()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd
}

// StartDetached spawns a background instance of the current executable and
// returns its PID.
func StartDetached(args ...string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := DetachedCommand(executable, args...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start background instance: %w", err)
	}
	pid := cmd.Process.Pid
	// The child is not waited on; release it so no zombie handle is kept.
	_ = cmd.Process.Release()
	return pid, nil
}
