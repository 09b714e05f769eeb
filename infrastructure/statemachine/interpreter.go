package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/oversight/domain/action"
)

// Interpreter wraps the statekit interpreter with workflow-specific
// functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the load workflow machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	// Update the context reference in the machine
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start initializes the interpreter and enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	state := i.interp.State()
	i.ctx.Status = action.Status(state.Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Status returns the current workflow status.
func (i *Interpreter) Status() action.Status {
	state := i.interp.State()
	return action.Status(state.Value)
}

// Transition attempts to transition to the target status.
func (i *Interpreter) Transition(to action.Status, reason string) error {
	if !CanTransition(i.ctx.Status, to) {
		return fmt.Errorf("transition from %s to %s not allowed", i.ctx.Status, to)
	}

	event := statekit.Event{
		Type: EventForTransition(to),
		Payload: TransitionPayload{
			ToStatus: to,
			Reason:   reason,
		},
	}

	// Send the event (doesn't return error, uses panic for invalid events)
	i.interp.Send(event)

	newState := i.interp.State()
	i.ctx.Status = action.Status(newState.Value)

	return nil
}

// Trace returns the recorded transitions.
func (i *Interpreter) Trace() []Transition {
	return i.ctx.Trace
}

// ResumeFrom restores the interpreter to a specific status. Used when a
// replicated snapshot replaces local state, or when restoring a persisted
// snapshot at startup.
func (i *Interpreter) ResumeFrom(status action.Status) error {
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "load",
		CurrentState: statekit.StateID(string(status)),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}

	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore workflow status: %w", err)
	}

	i.ctx.Status = status
	return nil
}
