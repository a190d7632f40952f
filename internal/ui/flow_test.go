package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/Mohsinsiddi/swapflow/internal/txflow"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type scripted struct {
	needs     bool
	actionErr error
	actions   int
}

func (s *scripted) request() txflow.Request {
	return txflow.Request{
		CheckNeedsApproval: func(context.Context) (bool, error) { return s.needs, nil },
		Approve: func(context.Context) (*txflow.Receipt, error) {
			return &txflow.Receipt{Hash: "0xa"}, nil
		},
		PerformAction: func(context.Context) (*txflow.Receipt, error) {
			s.actions++
			if s.actionErr != nil {
				err := s.actionErr
				s.actionErr = nil
				return nil, err
			}
			return &txflow.Receipt{Hash: "0xb"}, nil
		},
	}
}

// press sends a key and runs the resulting trigger synchronously.
func press(t *testing.T, m *FlowModel, k string) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(key(k))
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if done, ok := msg.(stepDoneMsg); ok {
		_, next := m.Update(done)
		return next
	}
	return cmd
}

func newModel(t *testing.T, s *scripted) *FlowModel {
	t.Helper()
	flow, err := txflow.New(s.request())
	require.NoError(t, err)
	m := NewFlowModel(context.Background(), flow, FlowScreen{
		Title:   "Contribute",
		Details: [][2]string{{"Amount", "10 CAKE"}},
		Success: "Contributed!",
	})
	_, _ = m.Update(stepDoneMsg{op: "start", err: flow.Start(context.Background())})
	return m
}

func TestFlowModelApproveThenConfirm(t *testing.T) {
	s := &scripted{needs: true}
	m := newModel(t, s)

	assert.Equal(t, txflow.PhaseAwaitingApproval, m.Flow().Phase())
	assert.Contains(t, m.View(), "[ a ] enable")
	assert.NotContains(t, m.View(), "[ c ] confirm")

	assert.Nil(t, press(t, m, "c"), "confirm is ignored before approval")
	assert.Equal(t, 0, s.actions)

	press(t, m, "a")
	assert.Equal(t, txflow.PhaseApproved, m.Flow().Phase())
	assert.Contains(t, m.View(), "[ c ] confirm")

	next := press(t, m, "c")
	assert.True(t, m.Confirmed())
	require.NotNil(t, next)
	assert.IsType(t, tea.QuitMsg{}, next())
	assert.Contains(t, m.View(), "Contributed!")
	assert.Equal(t, 1, s.actions)
}

func TestFlowModelShowsFailureAndRetries(t *testing.T) {
	s := &scripted{actionErr: txflow.Reverted("sold out", nil)}
	m := newModel(t, s)
	assert.Equal(t, txflow.PhaseApproved, m.Flow().Phase())

	press(t, m, "c")
	assert.Equal(t, txflow.PhaseFailed, m.Flow().Phase())
	require.Error(t, m.Err())
	view := m.View()
	assert.Contains(t, view, "sold out")
	assert.Contains(t, view, "[ r ] retry")

	first := m.Flow()
	press(t, m, "r")
	assert.NotSame(t, first, m.Flow())
	assert.Equal(t, txflow.PhaseApproved, m.Flow().Phase(), "confirm failure keeps approval")
	assert.NoError(t, m.Err())

	press(t, m, "c")
	assert.True(t, m.Confirmed())
	assert.Equal(t, 2, s.actions)
}

func TestFlowModelRetryAfterUnconfirmedNeedsSecondPress(t *testing.T) {
	s := &scripted{actionErr: txflow.Pending("0xfeed", errors.New("transaction not mined"))}
	m := newModel(t, s)

	press(t, m, "c")
	require.Equal(t, txflow.PhaseFailed, m.Flow().Phase())
	assert.Contains(t, m.View(), "0xfeed")

	first := m.Flow()
	assert.Nil(t, press(t, m, "r"))
	assert.Same(t, first, m.Flow(), "first press only warns")
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "press r again")
	assert.Equal(t, 1, s.actions)

	press(t, m, "r")
	assert.NotSame(t, first, m.Flow())
	assert.Equal(t, txflow.PhaseApproved, m.Flow().Phase())

	press(t, m, "c")
	assert.True(t, m.Confirmed())
	assert.Equal(t, 2, s.actions)
}

func TestFlowModelQuitDisposes(t *testing.T) {
	m := newModel(t, &scripted{needs: true})

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())

	err := m.Flow().Approve(context.Background())
	assert.ErrorIs(t, err, txflow.ErrDisposed)
}

func TestFlowModelIgnoresInProgress(t *testing.T) {
	m := newModel(t, &scripted{needs: true})
	_, _ = m.Update(stepDoneMsg{op: "approve", err: txflow.ErrInProgress})
	assert.NoError(t, m.Err())

	_, _ = m.Update(stepDoneMsg{op: "approve", err: errors.New("boom")})
	assert.EqualError(t, m.Err(), "boom")
}

func TestFlowModelTickKeepsTicking(t *testing.T) {
	m := newModel(t, &scripted{needs: true})
	_, cmd := m.Update(flowTickMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.frame)
}
