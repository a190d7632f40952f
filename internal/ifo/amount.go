package ifo

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// DefaultDecimals is the precision of most BEP-20/ERC-20 tokens.
const DefaultDecimals = 18

// plainDecimal admits digits with an optional fraction: no sign, exponent,
// hex prefix, fraction bar or digit separators.
var plainDecimal = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseAmount converts a human decimal string ("12.5") into base units for a
// token with the given decimals. The conversion is exact: inputs with more
// fractional digits than decimals are rejected instead of rounded.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals %d", decimals)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	if !plainDecimal.MatchString(s) {
		return nil, fmt.Errorf("invalid amount %q: use a plain decimal such as 12.5", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(pow10(decimals)))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatAmount renders base units as a decimal string without trailing zeros.
func FormatAmount(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	if decimals <= 0 {
		return raw.String()
	}
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	whole, frac := new(big.Int).QuoRem(abs, pow10(decimals), new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", decimals-len(fs)) + fs
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
