package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/swapflow/internal/txflow"
	tea "github.com/charmbracelet/bubbletea"
)

// FlowScreen describes what the approve/confirm screen shows.
type FlowScreen struct {
	Title   string
	Details [][2]string
	// Success is printed once the workflow is confirmed.
	Success string
}

// stepDoneMsg carries the result of a trigger run off the UI goroutine.
type stepDoneMsg struct {
	op  string
	err error
}

type flowTickMsg time.Time

// FlowModel is the Bubble Tea model hosting one approve/confirm workflow.
// Triggers run as commands, so the screen keeps redrawing while a
// transaction is pending.
type FlowModel struct {
	ctx    context.Context
	flow   *txflow.Orchestrator
	screen FlowScreen

	err      error
	frame    int
	quitting bool
	// set after the first retry press on an unconfirmed broadcast
	retryArmed bool
}

// NewFlowModel wraps flow. The model calls Start itself in Init.
func NewFlowModel(ctx context.Context, flow *txflow.Orchestrator, screen FlowScreen) *FlowModel {
	return &FlowModel{ctx: ctx, flow: flow, screen: screen}
}

// Flow returns the orchestrator currently shown; Retry replaces it.
func (m *FlowModel) Flow() *txflow.Orchestrator { return m.flow }

// Err returns the last trigger error, if any.
func (m *FlowModel) Err() error { return m.err }

// Confirmed reports whether the workflow finished successfully.
func (m *FlowModel) Confirmed() bool { return m.flow.Phase() == txflow.PhaseConfirmed }

func (m *FlowModel) Init() tea.Cmd {
	return tea.Batch(m.run("start", m.flow.Start), flowTick())
}

func (m *FlowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case stepDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, txflow.ErrInProgress) && !errors.Is(msg.err, txflow.ErrDisposed) {
			m.err = msg.err
		}
		if m.flow.Phase() == txflow.PhaseConfirmed {
			return m, tea.Quit
		}

	case flowTickMsg:
		m.frame++
		if !m.quitting {
			return m, flowTick()
		}
	}
	return m, nil
}

func (m *FlowModel) handleKey(key string) (tea.Model, tea.Cmd) {
	phase := m.flow.Phase()
	switch key {
	case "q", "ctrl+c", "esc":
		m.flow.Dispose()
		m.quitting = true
		return m, tea.Quit
	case "a":
		if phase.CanApprove() {
			m.err = nil
			return m, m.run("approve", m.flow.Approve)
		}
	case "c", "enter":
		if phase.CanConfirm() {
			m.err = nil
			return m, m.run("confirm", m.flow.Confirm)
		}
	case "r":
		if phase == txflow.PhaseFailed {
			if f := m.flow.LastError(); f != nil && f.Unconfirmed() && !m.retryArmed {
				m.retryArmed = true
				m.err = fmt.Errorf("transaction %s may still be mined; check it on the explorer, then press r again to send a new one", f.Hash)
				return m, nil
			}
			m.retryArmed = false
			next, err := m.flow.Retry()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.flow.Dispose()
			m.flow, m.err = next, nil
			return m, m.run("start", next.Start)
		}
	}
	return m, nil
}

func (m *FlowModel) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return stepDoneMsg{op: op, err: fn(ctx)}
	}
}

func flowTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg { return flowTickMsg(t) })
}

func (m *FlowModel) View() string {
	if m.quitting {
		return ""
	}
	phase := m.flow.Phase()

	var sb strings.Builder
	sb.WriteString("\n")
	if len(m.screen.Details) > 0 {
		sb.WriteString(KeyValueBlock(m.screen.Title, m.screen.Details) + "\n\n")
	} else if m.screen.Title != "" {
		sb.WriteString(StyleTitle.Render("  "+m.screen.Title) + "\n")
	}

	sb.WriteString("  " + stepLine("1", "Enable", approveState(phase, m.flow.History())) + "\n")
	sb.WriteString("  " + stepLine("2", "Confirm", confirmState(phase)) + "\n\n")

	status := PhaseLabel(phase)
	if phase.IsBusy() {
		status = StyleChain.Render(spinnerFrames[m.frame%len(spinnerFrames)]) + " " + status
	}
	sb.WriteString("  " + Meta("status:") + " " + status + "\n")

	switch {
	case phase == txflow.PhaseConfirmed && m.screen.Success != "":
		sb.WriteString("\n  " + Success(m.screen.Success) + "\n")
	case m.err != nil:
		sb.WriteString("\n  " + Err(m.err.Error()) + "\n")
	}

	sb.WriteString("\n" + Meta("  "+keyHints(phase)) + "\n")
	return sb.String()
}

func stepLine(n, label, state string) string {
	return fmt.Sprintf("%s %-8s %s", Meta(n+"."), label, state)
}

func approveState(p txflow.Phase, history []txflow.Phase) string {
	switch {
	case p == txflow.PhaseCheckingApproval || p == txflow.PhaseIdle:
		return Meta("checking allowance…")
	case p == txflow.PhaseAwaitingApproval:
		return StyleWarning.Render("required")
	case p == txflow.PhaseApproving:
		return StyleChain.Render("pending…")
	case p == txflow.PhaseFailed && !visited(history, txflow.PhaseApproved):
		return StyleError.Render("failed")
	default:
		return StyleSuccess.Render("done")
	}
}

func confirmState(p txflow.Phase) string {
	switch p {
	case txflow.PhaseApproved, txflow.PhaseAwaitingConfirmation:
		return StyleWarning.Render("ready")
	case txflow.PhaseConfirming:
		return StyleChain.Render("pending…")
	case txflow.PhaseConfirmed:
		return StyleSuccess.Render("done")
	default:
		return Meta("waiting")
	}
}

func keyHints(p txflow.Phase) string {
	var hints []string
	if p.CanApprove() {
		hints = append(hints, "[ a ] enable")
	}
	if p.CanConfirm() {
		hints = append(hints, "[ c ] confirm")
	}
	if p == txflow.PhaseFailed {
		hints = append(hints, "[ r ] retry")
	}
	return strings.Join(append(hints, "[ q ] close"), "   ")
}

func visited(history []txflow.Phase, p txflow.Phase) bool {
	for _, h := range history {
		if h == p {
			return true
		}
	}
	return false
}

// RunFlow shows the approve/confirm screen until the workflow is confirmed
// or the user closes it.
func RunFlow(ctx context.Context, flow *txflow.Orchestrator, screen FlowScreen) (*FlowModel, error) {
	m := NewFlowModel(ctx, flow, screen)
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return m, fmt.Errorf("flow screen: %w", err)
	}
	return final.(*FlowModel), nil
}
