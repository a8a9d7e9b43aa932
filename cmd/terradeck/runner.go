package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Long single lines show up in terraform output (inline JSON, state dumps),
// so the scanners get plenty of headroom over the default token size.
const maxOutputLineBytes = 16 * 1024 * 1024

type RunOutcome struct {
	Success   bool
	Cancelled bool
	ExitCode  int
}

// runStreamingCommand starts cmd with both pipes attached, forwards every
// output line to the queue, and waits for exit while watching the cancel
// cell. Cancellation escalates in two user-paced stages: SIGINT is sent once
// when a graceful cancel is first observed, the kill once on force. Neither
// signal is ever repeated for the same operation.
func runStreamingCommand(cmd *exec.Cmd, cancel *cancelCell, events *eventQueue) (RunOutcome, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return RunOutcome{}, fmt.Errorf("Failed to pipe stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return RunOutcome{}, fmt.Errorf("Failed to pipe stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return RunOutcome{}, fmt.Errorf("Failed to spawn command: %w", err)
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		streamLines(stdout, events)
	}()
	go func() {
		defer readers.Done()
		streamLines(stderr, events)
	}()

	// Wait closes the pipes, so it must not run until both readers hit EOF.
	waitDone := make(chan error, 1)
	go func() {
		readers.Wait()
		waitDone <- cmd.Wait()
	}()

	cancelled := false
	sigintSent := false
	forceKillSent := false

	var waitErr error
wait:
	for {
		changed := cancel.changed()
		switch cancel.get() {
		case CancelGraceful:
			cancelled = true
			if !sigintSent {
				sendInterrupt(cmd.Process)
				events.pushLine("Sent SIGINT to running command.")
				sigintSent = true
			}
		case CancelForce:
			cancelled = true
			if !forceKillSent {
				events.pushLine("Force kill signal sent to running command.")
				_ = cmd.Process.Kill()
				forceKillSent = true
			}
		}

		select {
		case waitErr = <-waitDone:
			break wait
		case <-changed:
		}
	}

	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			return RunOutcome{}, fmt.Errorf("Failed while waiting for command: %w", waitErr)
		}
	}

	return RunOutcome{
		Success:   waitErr == nil,
		Cancelled: cancelled,
		ExitCode:  exitCodeOf(waitErr),
	}, nil
}

func streamLines(r io.Reader, events *eventQueue) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxOutputLineBytes)
	for sc.Scan() {
		events.pushLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		events.pushLinef("output stream error: %v", err)
	}
}

// sendInterrupt asks the child to wind down so terraform can release its
// state lock. On platforms without signal delivery the request is dropped and
// force kill stays available as the second stage.
func sendInterrupt(proc *os.Process) {
	if proc == nil {
		return
	}
	_ = proc.Signal(os.Interrupt)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}
	return -1
}
