package txflow

// Phase is the lifecycle position of one approve-then-confirm workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCheckingApproval
	PhaseAwaitingApproval
	PhaseApproving
	PhaseApproved
	PhaseAwaitingConfirmation
	PhaseConfirming
	PhaseConfirmed
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseIdle:                 "idle",
	PhaseCheckingApproval:     "checking-approval",
	PhaseAwaitingApproval:     "awaiting-approval",
	PhaseApproving:            "approving",
	PhaseApproved:             "approved",
	PhaseAwaitingConfirmation: "awaiting-confirmation",
	PhaseConfirming:           "confirming",
	PhaseConfirmed:            "confirmed",
	PhaseFailed:               "failed",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

// IsTerminal reports whether no further transition can leave p.
func (p Phase) IsTerminal() bool {
	return p == PhaseConfirmed || p == PhaseFailed
}

// CanApprove reports whether the approve step may be triggered in p.
func (p Phase) CanApprove() bool {
	return p == PhaseAwaitingApproval
}

// CanConfirm reports whether the action step may be triggered in p.
func (p Phase) CanConfirm() bool {
	return p == PhaseApproved || p == PhaseAwaitingConfirmation
}

// IsBusy reports whether a capability call is outstanding in p.
func (p Phase) IsBusy() bool {
	return p == PhaseCheckingApproval || p == PhaseApproving || p == PhaseConfirming
}

// allowed lists the forward edges of the state machine. Failed is reachable
// from every busy phase and is handled separately.
var allowed = map[Phase][]Phase{
	PhaseIdle:                 {PhaseCheckingApproval, PhaseApproved},
	PhaseCheckingApproval:     {PhaseAwaitingApproval, PhaseApproved},
	PhaseAwaitingApproval:     {PhaseApproving},
	PhaseApproving:            {PhaseApproved},
	PhaseApproved:             {PhaseAwaitingConfirmation},
	PhaseAwaitingConfirmation: {PhaseConfirming},
	PhaseConfirming:           {PhaseConfirmed},
}

func canTransition(from, to Phase) bool {
	if to == PhaseFailed {
		return !from.IsTerminal()
	}
	for _, p := range allowed[from] {
		if p == to {
			return true
		}
	}
	return false
}
