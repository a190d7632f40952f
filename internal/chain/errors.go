package chain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors callers match with errors.Is.
var (
	// ErrUnreachable wraps transport failures: DNS, refused connections, HTTP timeouts.
	ErrUnreachable = errors.New("RPC endpoint unreachable")
	// ErrNotMined is returned when a receipt did not appear before the deadline.
	ErrNotMined = errors.New("transaction not mined")
	// ErrReverted is matched by every RevertError.
	ErrReverted = errors.New("transaction reverted")
)

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// IsRevert reports whether the node rejected the call because execution
// reverted (eth_call, eth_estimateGas).
func (e *RPCError) IsRevert() bool {
	return e.Code == 3 || strings.Contains(strings.ToLower(e.Message), "revert")
}

// isTransient reports whether err may clear up on the next request.
func isTransient(err error) bool {
	var rpcErr *RPCError
	return errors.Is(err, ErrUnreachable) || errors.As(err, &rpcErr)
}

// PendingError is returned once a transaction has been broadcast but its
// outcome could not be read. The transaction may still be mined.
type PendingError struct {
	Hash string
	Err  error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("transaction %s was broadcast but not confirmed: %v", e.Hash, e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }

// RevertError describes a transaction or simulated call that reverted.
type RevertError struct {
	Hash   string // empty for simulated calls
	Reason string
}

func (e *RevertError) Error() string {
	msg := "transaction reverted"
	if e.Hash != "" {
		msg += " (hash: " + e.Hash + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes errors.Is(err, ErrReverted) true for every RevertError.
func (e *RevertError) Is(target error) bool { return target == ErrReverted }

// AsRevert converts an RPC revert into a RevertError, or returns nil.
func AsRevert(err error) *RevertError {
	var re *RevertError
	if errors.As(err, &re) {
		return re
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.IsRevert() {
		return &RevertError{Reason: extractRevertReason(rpcErr.Message)}
	}
	return nil
}

// extractRevertReason tries to pull the revert reason out of an RPC error message.
func extractRevertReason(errMsg string) string {
	// Common pattern: "execution reverted: <reason>"
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx+len("execution reverted:"):])
	}
	return ""
}
