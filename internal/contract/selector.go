package contract

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// Selector computes the 4-byte function selector for a canonical signature
// such as "approve(address,uint256)".
func Selector(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(strings.ReplaceAll(signature, " ", "")))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// knownMethods maps selectors of every bound method to its signature.
var knownMethods = func() map[string]string {
	m := make(map[string]string)
	for _, a := range []abi.ABI{erc20ABI, ifoABI, competitionABI} {
		for _, method := range a.Methods {
			m[Selector(method.Sig)] = method.Sig
		}
	}
	return m
}()

// Describe labels calldata for confirmation prompts: the method signature
// when known, otherwise the raw selector.
func Describe(data []byte) string {
	if len(data) < 4 {
		return "(no calldata)"
	}
	sel := "0x" + hex.EncodeToString(data[:4])
	if sig, ok := knownMethods[sel]; ok {
		return sig
	}
	return sel
}
