// Package statemachine provides the statekit integration for the load workflow.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/oversight/domain/action"
)

// Transition records one workflow status change.
type Transition struct {
	From   action.Status
	To     action.Status
	Reason string
	At     time.Time
}

// Context carries workflow state through the state machine.
type Context struct {
	Status action.Status
	Trace  []Transition
}

// NewContext creates a machine context starting at idle.
func NewContext() *Context {
	return &Context{Status: action.StatusIdle}
}

// State IDs as StateID type for statekit.
const (
	stateIdle      statekit.StateID = statekit.StateID(action.StatusIdle)
	stateFetching  statekit.StateID = statekit.StateID(action.StatusFetching)
	stateFetched   statekit.StateID = statekit.StateID(action.StatusFetched)
	stateVerified  statekit.StateID = statekit.StateID(action.StatusVerified)
	stateDisplayed statekit.StateID = statekit.StateID(action.StatusDisplayed)
	stateFailed    statekit.StateID = statekit.StateID(action.StatusFailed)
)

// allowedTransitions is the canonical transition table. Every non-terminal
// status may fail; any status may be reset to idle; the load path runs
// idle → fetching → fetched → verified → displayed, with validation allowed
// to jump straight from idle to fetched.
var allowedTransitions = map[action.Status][]action.Status{
	action.StatusIdle:      {action.StatusFetching, action.StatusFetched, action.StatusFailed},
	action.StatusFetching:  {action.StatusFetched, action.StatusIdle, action.StatusFailed},
	action.StatusFetched:   {action.StatusVerified, action.StatusIdle, action.StatusFailed},
	action.StatusVerified:  {action.StatusDisplayed, action.StatusIdle, action.StatusFailed},
	action.StatusDisplayed: {action.StatusIdle},
	action.StatusFailed:    {action.StatusIdle},
}

// CanTransition reports whether the workflow may move from one status to
// another.
func CanTransition(from, to action.Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NewLoadMachine creates the canonical load workflow statechart.
func NewLoadMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("load").
		WithInitial(stateIdle).
		WithContext(&Context{Status: action.StatusIdle}).
		WithAction("recordTransition", recordTransition).
		WithGuard("canTransition", guardCanTransition).
		State(stateIdle).
			On("FETCH").Target(stateFetching).Guard("canTransition").Do("recordTransition").
			On("FETCHED").Target(stateFetched).Guard("canTransition").Do("recordTransition").
			On("FAIL").Target(stateFailed).Do("recordTransition").
			Done().
		State(stateFetching).
			On("FETCHED").Target(stateFetched).Guard("canTransition").Do("recordTransition").
			On("RESET").Target(stateIdle).Do("recordTransition").
			On("FAIL").Target(stateFailed).Do("recordTransition").
			Done().
		State(stateFetched).
			On("VERIFY").Target(stateVerified).Guard("canTransition").Do("recordTransition").
			On("RESET").Target(stateIdle).Do("recordTransition").
			On("FAIL").Target(stateFailed).Do("recordTransition").
			Done().
		State(stateVerified).
			On("DISPLAY").Target(stateDisplayed).Guard("canTransition").Do("recordTransition").
			On("RESET").Target(stateIdle).Do("recordTransition").
			On("FAIL").Target(stateFailed).Do("recordTransition").
			Done().
		State(stateDisplayed).
			On("RESET").Target(stateIdle).Do("recordTransition").
			Done().
		State(stateFailed).
			On("RESET").Target(stateIdle).Do("recordTransition").
			Done().
		Build()
}

// EventForTransition returns the event type for a status transition.
func EventForTransition(to action.Status) statekit.EventType {
	switch to {
	case action.StatusFetching:
		return "FETCH"
	case action.StatusFetched:
		return "FETCHED"
	case action.StatusVerified:
		return "VERIFY"
	case action.StatusDisplayed:
		return "DISPLAY"
	case action.StatusIdle:
		return "RESET"
	case action.StatusFailed:
		return "FAIL"
	default:
		return statekit.EventType(to)
	}
}

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToStatus action.Status
	Reason   string
}

// recordTransition records the status change in the trace.
// In statekit, actions receive a pointer to the context. Since our context is
// *Context, actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx

	var toStatus action.Status
	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toStatus = payload.ToStatus
		reason = payload.Reason
	} else {
		toStatus = statusFromEventType(event.Type)
	}

	c.Trace = append(c.Trace, Transition{
		From:   c.Status,
		To:     toStatus,
		Reason: reason,
		At:     time.Now(),
	})
	c.Status = toStatus
}

// guardCanTransition checks the transition against the canonical table.
// Guards receive the context by value, so *Context here.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil {
		return false
	}

	var toStatus action.Status
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toStatus = payload.ToStatus
	} else {
		toStatus = statusFromEventType(event.Type)
	}

	return CanTransition(ctx.Status, toStatus)
}

// statusFromEventType derives the target status from an event type.
func statusFromEventType(eventType statekit.EventType) action.Status {
	switch eventType {
	case "FETCH":
		return action.StatusFetching
	case "FETCHED":
		return action.StatusFetched
	case "VERIFY":
		return action.StatusVerified
	case "DISPLAY":
		return action.StatusDisplayed
	case "RESET":
		return action.StatusIdle
	case "FAIL":
		return action.StatusFailed
	default:
		return action.Status(eventType)
	}
}
