package dispatch

import (
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// spawnedWorker is the controller-side handle to one worker subprocess:
// the exec.Cmd plus the pipe ends the controller owns.
type spawnedWorker struct {
	cmd    *exec.Cmd
	link   *ipcLink
	toward *os.File // control pipe write end, closed to signal EOF to the child
}

// spawnWorker starts exePath as a worker subprocess for the worker
// registered under workerName, wiring
// dedicated control/result pipes over ExtraFiles (fd 3/4) so the child's
// own stdout/stderr remain free for RunWorkerSubprocessIfRequested's
// caller to use or suppress independently.
//
// Each child is placed in its own process group (Setpgid) so the
// terminate/kill escalation in worker_proxy.go can signal the whole group
// rather than a single PID.
func spawnWorker(exePath string, workerName string, suppressOutput bool) (*spawnedWorker, error) {
	controlR, controlW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	resultR, resultW, err := os.Pipe()
	if err != nil {
		controlR.Close()
		controlW.Close()
		return nil, err
	}

	cmd := exec.Command(exePath)
	cmd.Env = append(os.Environ(), workerSubprocessEnv+"=1", workerNameEnv+"="+workerName)
	cmd.ExtraFiles = []*os.File{controlR, resultW}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if suppressOutput {
		devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			controlR.Close()
			controlW.Close()
			resultR.Close()
			resultW.Close()
			return nil, err
		}
		cmd.Stdout = devNull
		cmd.Stderr = devNull
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		controlR.Close()
		controlW.Close()
		resultR.Close()
		resultW.Close()
		return nil, err
	}

	// The parent's copies of the child's ends are no longer needed.
	controlR.Close()
	resultW.Close()

	return &spawnedWorker{
		cmd:    cmd,
		link:   newParentLink(controlW, resultR),
		toward: controlW,
	}, nil
}

// closeControl half-closes the pipe toward the child, which the child
// observes as EOF on its next control read and treats as shutdown.
func (sw *spawnedWorker) closeControl() {
	_ = sw.toward.Close()
}

// stopEscalation joins with a 3s grace, then
// SIGTERM the process group and join 1s, then SIGKILL and join 0.5s.
func (sw *spawnedWorker) stopEscalation() error {
	exited := make(chan error, 1)
	go func() { exited <- sw.cmd.Wait() }()

	pgid := sw.cmd.Process.Pid

	select {
	case <-exited:
		return nil
	case <-time.After(3 * time.Second):
	}

	_ = unix.Kill(-pgid, unix.SIGTERM)
	select {
	case <-exited:
		return nil
	case <-time.After(1 * time.Second):
	}

	_ = unix.Kill(-pgid, unix.SIGKILL)
	select {
	case <-exited:
		return nil
	case <-time.After(500 * time.Millisecond):
		return nil // best effort: a process wedged past SIGKILL is a kernel-level hang, not ours to fix.
	}
}
