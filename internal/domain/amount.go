package domain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// maxAmountLen bounds the text of an amount: 78 integer digits fill 256
// bits, plus a point and the widest allowed fraction.
const maxAmountLen = 128

// ParseAmount converts a human decimal amount such as "1.5" into base
// units scaled by 10^decimals. Negative values, values with more
// fractional digits than decimals allows, and values that do not fit in
// 256 bits are rejected. Exponent notation is not accepted.
func ParseAmount(s string, decimals int32) (*uint256.Int, error) {
	if len(s) > maxAmountLen {
		return nil, fmt.Errorf("amount must be at most %d characters", maxAmountLen)
	}
	if strings.ContainsAny(s, "eE") {
		return nil, fmt.Errorf("amount must be a plain decimal number, got %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("amount must be a decimal number, got %q", s)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("amount must be >= 0")
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount must have at most %d decimal places", decimals)
	}

	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount exceeds the maximum representable balance")
	}
	return v, nil
}

// FormatAmount renders base units as a human decimal string with trailing
// zeros trimmed. A nil amount formats as "0".
func FormatAmount(v *uint256.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -decimals).String()
}
