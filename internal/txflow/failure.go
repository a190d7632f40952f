package txflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Step names the capability that produced a failure.
type Step string

const (
	StepApprove Step = "approve"
	StepConfirm Step = "confirm"
)

// Kind classifies why a transaction step failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindRejected
	KindNetwork
	KindReverted
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindNetwork:
		return "network"
	case KindReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Failure is the payload carried by the Failed phase.
type Failure struct {
	Step   Step
	Kind   Kind
	Reason string // revert reason or underlying message, may be empty
	// Hash is set when the transaction was broadcast but its outcome is
	// unknown. It may still be mined.
	Hash string
	Err  error
}

// Error returns the message shown to the user.
func (f *Failure) Error() string {
	var msg string
	switch f.Kind {
	case KindRejected:
		msg = "transaction signature was declined in the wallet"
	case KindNetwork:
		msg = "could not reach the network or the transaction was not confirmed in time"
	case KindReverted:
		msg = "transaction reverted on-chain"
	default:
		msg = "transaction failed"
	}
	if f.Step != "" {
		msg = string(f.Step) + ": " + msg
	}
	if f.Reason != "" {
		msg += " (" + f.Reason + ")"
	}
	if f.Hash != "" {
		msg += "; transaction " + f.Hash + " was sent and may still be mined"
	}
	return msg
}

// Unconfirmed reports whether a transaction went out before the failure.
func (f *Failure) Unconfirmed() bool { return f.Hash != "" }

func (f *Failure) Unwrap() error { return f.Err }

// Rejected tags err as a wallet signature rejection.
func Rejected(err error) error {
	return &Failure{Kind: KindRejected, Err: err}
}

// NetworkFailure tags err as a transport or timeout problem.
func NetworkFailure(err error) error {
	f := &Failure{Kind: KindNetwork, Err: err}
	if err != nil {
		f.Reason = err.Error()
	}
	return f
}

// Pending tags err as a network failure after hash was broadcast.
func Pending(hash string, err error) error {
	f := &Failure{Kind: KindNetwork, Hash: hash, Err: err}
	if err != nil {
		f.Reason = err.Error()
	}
	return f
}

// Reverted tags err as an on-chain revert with an optional reason.
func Reverted(reason string, err error) error {
	return &Failure{Kind: KindReverted, Reason: reason, Err: err}
}

// Classify turns an arbitrary capability error into a Failure for step.
// Errors already tagged with Rejected, NetworkFailure or Reverted keep their
// kind; otherwise the kind is inferred from the error chain and message.
func Classify(step Step, err error) *Failure {
	var tagged *Failure
	if errors.As(err, &tagged) {
		out := *tagged
		out.Step = step
		return &out
	}

	f := &Failure{Step: step, Err: err}
	var netErr net.Error
	switch {
	case err == nil:
		f.Kind = KindUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.As(err, &netErr):
		f.Kind = KindNetwork
		f.Reason = err.Error()
	default:
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "revert"):
			f.Kind = KindReverted
			f.Reason = revertReason(err.Error())
		case strings.Contains(msg, "user denied"), strings.Contains(msg, "user rejected"),
			strings.Contains(msg, "declined"), strings.Contains(msg, "rejected by user"):
			f.Kind = KindRejected
		case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection refused"),
			strings.Contains(msg, "no such host"), strings.Contains(msg, "not mined"):
			f.Kind = KindNetwork
			f.Reason = err.Error()
		default:
			f.Kind = KindUnknown
			f.Reason = err.Error()
		}
	}
	return f
}

func revertReason(msg string) string {
	const marker = "execution reverted:"
	if idx := strings.Index(msg, marker); idx >= 0 {
		return strings.TrimSpace(msg[idx+len(marker):])
	}
	return ""
}

// Error values returned by the trigger methods.
var (
	ErrInProgress = errors.New("operation already in progress")
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	ErrTerminal   = errors.New("workflow already finished")
	ErrNotFailed  = errors.New("workflow has not failed")
)

func wrongPhase(op string, p Phase) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrWrongPhase, op, p)
}
