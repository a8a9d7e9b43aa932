package main

import (
	"fmt"
	"sync"
)

// WorkerEvent is the one-way traffic from background workers to the UI loop.
// The loop owns all state; workers only ever describe what happened.
type WorkerEvent interface {
	workerEvent()
}

type OutputLine struct {
	Line string
}

type AccountAuthUpdate struct {
	AccountIdx int
	Status     AuthStatus
	Message    string
}

type WorkspacesLoaded struct {
	AccountIdx int
	Workspaces []string
}

type OperationFinished struct {
	Kind       OperationKind
	AccountIdx int
	Success    bool
	Cancelled  bool
	Message    string
}

func (OutputLine) workerEvent()        {}
func (AccountAuthUpdate) workerEvent() {}
func (WorkspacesLoaded) workerEvent()  {}
func (OperationFinished) workerEvent() {}

// eventQueue buffers events in arrival order until the next UI tick drains
// them. Pushes never block, so workers keep streaming while the UI renders.
type eventQueue struct {
	mu     sync.Mutex
	events []WorkerEvent
}

func newEventQueue() *eventQueue {
	return &eventQueue{}
}

func (q *eventQueue) push(ev WorkerEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

func (q *eventQueue) pushLine(line string) {
	q.push(OutputLine{Line: line})
}

func (q *eventQueue) pushLinef(format string, args ...interface{}) {
	q.pushLine(fmt.Sprintf(format, args...))
}

func (q *eventQueue) drain() []WorkerEvent {
	q.mu.Lock()
	events := q.events
	q.events = nil
	q.mu.Unlock()
	return events
}
