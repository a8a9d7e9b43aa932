package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeExecutable(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o755)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := writeExecutable(path, "#!/bin/sh\n"+body); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func drainLines(q *eventQueue) []string {
	lines := []string{}
	for _, ev := range q.drain() {
		if line, ok := ev.(OutputLine); ok {
			lines = append(lines, line.Line)
		}
	}
	return lines
}

func countLine(lines []string, want string) int {
	count := 0
	for _, line := range lines {
		if line == want {
			count++
		}
	}
	return count
}

func indexOfLine(lines []string, want string) int {
	for i, line := range lines {
		if line == want {
			return i
		}
	}
	return -1
}

type runResult struct {
	outcome RunOutcome
	err     error
}

// startRun runs runStreamingCommand in the background so the test can drive
// the cancel cell while the command is live.
func startRun(cmd *exec.Cmd, cancel *cancelCell, events *eventQueue) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		outcome, err := runStreamingCommand(cmd, cancel, events)
		done <- runResult{outcome, err}
	}()
	return done
}

// awaitLine polls the queue until the wanted line shows up, accumulating
// everything drained along the way. On timeout it force-kills so the runner
// goroutine cannot outlive the test.
func awaitLine(t *testing.T, events *eventQueue, cancel *cancelCell, done <-chan runResult, want string) []string {
	t.Helper()
	collected := []string{}
	deadline := time.Now().Add(5 * time.Second)
	for {
		collected = append(collected, drainLines(events)...)
		if indexOfLine(collected, want) >= 0 {
			return collected
		}
		if time.Now().After(deadline) {
			cancel.set(CancelForce)
			<-done
			t.Fatalf("timed out waiting for line %q, got %v", want, collected)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunStreamingCommandStreamsOutput(t *testing.T) {
	script := writeScript(t, `echo out 1
echo out 2
echo err 1 >&2
echo out 3
`)
	events := newEventQueue()

	outcome, err := runStreamingCommand(exec.Command(script), newCancelCell(), events)
	if err != nil {
		t.Fatalf("runStreamingCommand: %v", err)
	}
	if !outcome.Success || outcome.Cancelled || outcome.ExitCode != 0 {
		t.Errorf("expected clean success, got %+v", outcome)
	}

	lines := drainLines(events)
	for _, want := range []string{"out 1", "out 2", "out 3", "err 1"} {
		if countLine(lines, want) != 1 {
			t.Errorf("expected exactly one %q, got %v", want, lines)
		}
	}
	// Stderr may interleave, but stdout must keep its own order.
	if !(indexOfLine(lines, "out 1") < indexOfLine(lines, "out 2") &&
		indexOfLine(lines, "out 2") < indexOfLine(lines, "out 3")) {
		t.Errorf("expected stdout order preserved, got %v", lines)
	}
}

func TestRunStreamingCommandExitCode(t *testing.T) {
	script := writeScript(t, `echo failing
exit 3
`)
	events := newEventQueue()

	outcome, err := runStreamingCommand(exec.Command(script), newCancelCell(), events)
	if err != nil {
		t.Fatalf("expected exit status folded into outcome, got error %v", err)
	}
	if outcome.Success {
		t.Errorf("expected failure outcome")
	}
	if outcome.Cancelled {
		t.Errorf("expected no cancellation")
	}
	if outcome.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", outcome.ExitCode)
	}
}

func TestRunStreamingCommandSpawnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-binary")

	_, err := runStreamingCommand(exec.Command(missing), newCancelCell(), newEventQueue())
	if err == nil {
		t.Fatalf("expected spawn error")
	}
	if !strings.Contains(err.Error(), "Failed to spawn command") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunStreamingCommandGracefulCancel(t *testing.T) {
	script := writeScript(t, `echo started
exec sleep 10
`)
	events := newEventQueue()
	cancel := newCancelCell()

	done := startRun(exec.Command(script), cancel, events)
	lines := awaitLine(t, events, cancel, done, "started")

	start := time.Now()
	cancel.set(CancelGraceful)
	res := <-done

	if time.Since(start) > 5*time.Second {
		t.Errorf("expected SIGINT to end the command promptly")
	}
	if res.err != nil {
		t.Fatalf("runStreamingCommand: %v", res.err)
	}
	if !res.outcome.Cancelled {
		t.Errorf("expected cancelled outcome, got %+v", res.outcome)
	}
	if res.outcome.Success {
		t.Errorf("expected unsuccessful outcome after SIGINT")
	}

	lines = append(lines, drainLines(events)...)
	if countLine(lines, "Sent SIGINT to running command.") != 1 {
		t.Errorf("expected exactly one SIGINT notice, got %v", lines)
	}
	if countLine(lines, "Force kill signal sent to running command.") != 0 {
		t.Errorf("expected no force kill for a graceful cancel")
	}
}

func TestRunStreamingCommandForceKill(t *testing.T) {
	// The child ignores SIGINT, so only the forced second stage ends it.
	script := writeScript(t, `trap '' INT
echo started
exec sleep 10
`)
	events := newEventQueue()
	cancel := newCancelCell()

	done := startRun(exec.Command(script), cancel, events)
	lines := awaitLine(t, events, cancel, done, "started")

	cancel.set(CancelGraceful)
	select {
	case res := <-done:
		t.Fatalf("expected command to survive SIGINT, got %+v", res.outcome)
	case <-time.After(300 * time.Millisecond):
	}

	cancel.set(CancelForce)
	res := <-done

	if res.err != nil {
		t.Fatalf("runStreamingCommand: %v", res.err)
	}
	if !res.outcome.Cancelled || res.outcome.Success {
		t.Errorf("expected cancelled failure outcome, got %+v", res.outcome)
	}

	lines = append(lines, drainLines(events)...)
	if countLine(lines, "Sent SIGINT to running command.") != 1 {
		t.Errorf("expected exactly one SIGINT notice, got %v", lines)
	}
	if countLine(lines, "Force kill signal sent to running command.") != 1 {
		t.Errorf("expected exactly one force kill notice, got %v", lines)
	}
}

func TestStreamLinesLongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	events := newEventQueue()

	streamLines(strings.NewReader(long+"\ntail\n"), events)

	lines := drainLines(events)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0]) != len(long) {
		t.Errorf("expected long line kept whole, got %d bytes", len(lines[0]))
	}
	if lines[1] != "tail" {
		t.Errorf("expected tail line, got %q", lines[1])
	}
}

func TestExitCodeOf(t *testing.T) {
	if got := exitCodeOf(nil); got != 0 {
		t.Errorf("expected 0 for nil, got %d", got)
	}
	if got := exitCodeOf(fmt.Errorf("boom")); got != -1 {
		t.Errorf("expected -1 for non-exit error, got %d", got)
	}
}
