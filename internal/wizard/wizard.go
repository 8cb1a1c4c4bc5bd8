// Package wizard implements the verification-wizard state machine and
// per-step validation rules.
package wizard

import (
	"github.com/skillora/instructor-os/internal/models"
)

// Controller drives navigation over the wizard steps of one application.
// Navigation is always free: validity gates submission, never movement.
type Controller struct {
	state *models.ApplicationState
}

// NewController wraps an application state.
func NewController(state *models.ApplicationState) *Controller {
	// repair out-of-range indexes from old snapshots
	state.CurrentStepIndex = clamp(state.CurrentStepIndex, len(state.Steps)-1)
	return &Controller{state: state}
}

// Current returns the active step index.
func (c *Controller) Current() int {
	return c.state.CurrentStepIndex
}

// CurrentStep returns the active step id.
func (c *Controller) CurrentStep() models.StepID {
	return c.state.Steps[c.state.CurrentStepIndex].ID
}

// Next advances one step. A no-op on the last step.
func (c *Controller) Next() int {
	if c.state.CurrentStepIndex < len(c.state.Steps)-1 {
		c.state.CurrentStepIndex++
	}
	return c.state.CurrentStepIndex
}

// Previous moves one step back. A no-op on the first step.
func (c *Controller) Previous() int {
	if c.state.CurrentStepIndex > 0 {
		c.state.CurrentStepIndex--
	}
	return c.state.CurrentStepIndex
}

// GoTo jumps to an arbitrary step, clamping into range. Always permitted.
func (c *Controller) GoTo(index int) int {
	c.state.CurrentStepIndex = clamp(index, len(c.state.Steps)-1)
	return c.state.CurrentStepIndex
}

// CanSubmit reports whether submission is permitted: every step valid and
// the three primary consents granted. This is the authoritative gate
// regardless of which step is active.
func (c *Controller) CanSubmit() bool {
	return c.state.AllStepsValid() && c.state.Consents.PrimaryGranted()
}

func clamp(i, last int) int {
	if last < 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}
	return i
}
