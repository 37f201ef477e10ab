// Package flow models the survey-taking state machine: the typed session
// states with their one-way transitions, and the in-flight draft handling
// that lets an attention check interrupt a question without disturbing it.
package flow

import (
	"errors"
	"fmt"
	"time"

	"survey-service/internal/attention"
	"survey-service/internal/models"
)

var (
	ErrTerminalState  = errors.New("session is in a terminal state")
	ErrNoPendingCheck = errors.New("no attention check is pending")
	ErrCheckPending   = errors.New("an attention check is pending")
)

// Transition validates a status change. Active is the only state with
// outgoing edges; every other state is terminal.
func Transition(from, to models.Status) error {
	if from.Terminal() {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrTerminalState, from, to)
	}
	switch to {
	case models.StatusCompleted, models.StatusQuotaFull, models.StatusExpired, models.StatusAttentionFailed, models.StatusActive:
		return nil
	}
	return fmt.Errorf("unknown session status %q", to)
}

// Draft is the unsaved answer for the question currently on screen.
type Draft struct {
	Position   models.QuestionPosition
	QuestionID string
	Answer     string
	StartedAt  time.Time
}

// Machine drives one participant's survey flow. It holds the draft for the
// in-flight question and stashes it while an attention check is shown, so a
// passed check restores the draft verbatim and a failed check still yields
// the partial answer for a save-as-is before terminating.
type Machine struct {
	state     models.Status
	scheduler *attention.Scheduler
	draft     *Draft
	stash     *Draft
	pending   *attention.Check
}

func NewMachine(scheduler *attention.Scheduler) *Machine {
	return &Machine{state: models.StatusActive, scheduler: scheduler}
}

func (m *Machine) State() models.Status { return m.state }

// SetState applies a transition through the state table.
func (m *Machine) SetState(to models.Status) error {
	if err := Transition(m.state, to); err != nil {
		return err
	}
	m.state = to
	return nil
}

// BeginQuestion starts a fresh draft for the question at pos.
func (m *Machine) BeginQuestion(pos models.QuestionPosition, now time.Time) error {
	if m.state.Terminal() {
		return ErrTerminalState
	}
	if m.pending != nil {
		return ErrCheckPending
	}
	m.draft = &Draft{Position: pos, QuestionID: pos.QuestionID(), StartedAt: now}
	return nil
}

// UpdateDraft replaces the draft answer text as the participant types.
func (m *Machine) UpdateDraft(answer string) {
	if m.draft != nil {
		m.draft.Answer = answer
	}
}

// Draft returns the current draft, which is the stashed one while a check is
// on screen.
func (m *Machine) Draft() *Draft {
	if m.stash != nil {
		return m.stash
	}
	return m.draft
}

// MaybeInjectCheck consults the scheduler for the given answered-question
// count. When a check is due it stashes the in-flight draft, marks the
// watermark and returns the generated check.
func (m *Machine) MaybeInjectCheck(answeredCount int, ctx attention.Context) (*attention.Check, bool) {
	if m.state.Terminal() || m.pending != nil {
		return nil, false
	}
	if !m.scheduler.ShouldInject(answeredCount) {
		return nil, false
	}
	check := m.scheduler.Generate(ctx)
	m.scheduler.MarkInjected(answeredCount)
	m.stash = m.draft
	m.draft = nil
	m.pending = &check
	return &check, true
}

// PendingCheck returns the check currently on screen, if any.
func (m *Machine) PendingCheck() *attention.Check { return m.pending }

// SetPendingCheck rehydrates a machine with a check that was generated in an
// earlier request; server-side handling is stateless between requests.
func (m *Machine) SetPendingCheck(check attention.Check) {
	m.pending = &check
}

// ResolveCheck validates the raw answer against the pending check. On a pass
// the stashed draft is restored verbatim and the flow stays active. On a
// failure the session transitions to attention_failed; the stashed draft
// remains reachable via Draft for a final save-as-is.
func (m *Machine) ResolveCheck(rawAnswer string) (bool, error) {
	if m.pending == nil {
		return false, ErrNoPendingCheck
	}
	check := m.pending
	m.pending = nil
	if attention.Validate(rawAnswer, check.AcceptedAnswers) {
		m.draft = m.stash
		m.stash = nil
		return true, nil
	}
	m.state = models.StatusAttentionFailed
	return false, nil
}

// Watermark exposes the scheduler watermark for persistence.
func (m *Machine) Watermark() int { return m.scheduler.Watermark() }
