package ui

import (
	"testing"

	"github.com/Mohsinsiddi/swapflow/internal/txflow"
	"github.com/stretchr/testify/assert"
)

func TestFormattersKeepPrefixAndMessage(t *testing.T) {
	cases := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Success", Success, "✓"},
		{"Warn", Warn, "⚠"},
		{"Err", Err, "✗"},
		{"Info", Info, "ℹ"},
		{"Hint", Hint, "→"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.fn("message")
			assert.Contains(t, out, tc.prefix)
			assert.Contains(t, out, "message")
		})
	}
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestPlainFormattersContainInput(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
	} {
		assert.Contains(t, fn("test"), "test", name)
	}
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))
	assert.Equal(t, "0x1234…5678", TruncateAddr("0x1234567890abcdef1234567890abcdef12345678"))
}

func TestPhaseLabelNamesEveryPhase(t *testing.T) {
	for p := txflow.PhaseIdle; p <= txflow.PhaseFailed; p++ {
		assert.Contains(t, PhaseLabel(p), p.String())
	}
}

func TestBanner(t *testing.T) {
	assert.Contains(t, Banner(), "swapflow")
}
