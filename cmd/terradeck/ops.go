package main

import "sync"

type AuthStatus int

const (
	AuthUnknown AuthStatus = iota
	AuthChecking
	AuthAuthenticated
	AuthFailed
)

func (s AuthStatus) Icon() string {
	switch s {
	case AuthChecking:
		return "~"
	case AuthAuthenticated:
		return "*"
	case AuthFailed:
		return "x"
	default:
		return "?"
	}
}

func (s AuthStatus) Label() string {
	switch s {
	case AuthChecking:
		return "checking"
	case AuthAuthenticated:
		return "ready"
	case AuthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type OperationKind int

const (
	OpAuthLogin OperationKind = iota
	OpRefreshWorkspaces
	OpTerraformInit
	OpTerraformPlan
	OpTerraformApply
)

func (k OperationKind) Label() string {
	switch k {
	case OpAuthLogin:
		return "aws sso login"
	case OpRefreshWorkspaces:
		return "workspace refresh"
	case OpTerraformInit:
		return "terraform init"
	case OpTerraformPlan:
		return "terraform plan"
	case OpTerraformApply:
		return "terraform apply"
	default:
		return "unknown"
	}
}

func (k OperationKind) RequiresWorkspace() bool {
	return k == OpTerraformPlan || k == OpTerraformApply
}

// CancelSignal is what the runner observes; CancelStage is what the UI has
// already requested. The stage only ever moves forward, so each signal fires
// at most once per operation.
type CancelSignal int

const (
	CancelNone CancelSignal = iota
	CancelGraceful
	CancelForce
)

type CancelStage int

const (
	StageNone CancelStage = iota
	StageGracefulRequested
	StageForceRequested
)

// cancelCell holds the latest cancel signal for one operation. set publishes
// a new value and wakes everyone parked on changed; readers always see the
// newest value, never a queue of stale ones.
type cancelCell struct {
	mu  sync.Mutex
	val CancelSignal
	ch  chan struct{}
}

func newCancelCell() *cancelCell {
	return &cancelCell{ch: make(chan struct{})}
}

func (c *cancelCell) set(v CancelSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v == c.val {
		return
	}
	c.val = v
	close(c.ch)
	c.ch = make(chan struct{})
}

func (c *cancelCell) get() CancelSignal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// changed returns a channel that closes on the next set. Grab the channel
// before reading the value to avoid missing a transition in between.
func (c *cancelCell) changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

// inflightOperation is the single slot for the one cancellable operation the
// app allows at a time.
type inflightOperation struct {
	kind        OperationKind
	accountIdx  int
	cancel      *cancelCell
	cancelStage CancelStage
}
