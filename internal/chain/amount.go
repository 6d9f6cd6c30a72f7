// Package chain provides token amount handling and shared RPC utilities.
package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// MaxDecimals is the largest token precision accepted.
const MaxDecimals = 36

// Amount is a token quantity in base units paired with the token's precision.
// All arithmetic happens on Value; the decimal string is presentation only.
type Amount struct {
	Value    *big.Int
	Decimals int
}

// NewAmount returns an Amount for the given base-unit value.
func NewAmount(value *big.Int, decimals int) Amount {
	if value == nil {
		value = new(big.Int)
	}
	return Amount{Value: new(big.Int).Set(value), Decimals: decimals}
}

// ParseAmount parses a decimal string into base units.
// "1.5" with 6 decimals returns 1500000. Inputs carrying more fractional
// digits than the precision allows are rejected, never truncated.
func ParseAmount(s string, decimals int) (Amount, error) {
	v, err := ParseDecimalAmount(s, decimals)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: v, Decimals: decimals}, nil
}

// ParseDecimalAmount parses a decimal amount string to base units with the given decimal places.
//
//nolint:gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, invalidAmount(amount, "amount is empty")
	}
	if decimalPlaces < 0 || decimalPlaces > MaxDecimals {
		return nil, invalidAmount(amount, fmt.Sprintf("unsupported precision %d", decimalPlaces))
	}

	// Exponent notation and signs are not accepted from users.
	if strings.ContainsAny(amount, "eE+-") {
		return nil, invalidAmount(amount, "only plain decimal notation is accepted")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, invalidAmount(amount, "not a decimal number")
	}

	scaled := d.Shift(int32(decimalPlaces)) //nolint:gosec // G115: bounded by MaxDecimals
	if !scaled.IsInteger() {
		return nil, invalidAmount(amount, fmt.Sprintf("more than %d decimal places", decimalPlaces))
	}

	return scaled.BigInt(), nil
}

// FormatDecimalAmount converts base units to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed: 1500000 with 6 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimalPlaces)).String() //nolint:gosec // G115: bounded precision
}

// String returns the decimal representation of the amount.
func (a Amount) String() string {
	return FormatDecimalAmount(a.Value, a.Decimals)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Value != nil && a.Value.Sign() > 0
}

// IsZero reports whether the amount is zero or unset.
func (a Amount) IsZero() bool {
	return a.Value == nil || a.Value.Sign() == 0
}

// Cmp compares two amounts of the same precision.
func (a Amount) Cmp(b Amount) int {
	av, bv := a.Value, b.Value
	if av == nil {
		av = new(big.Int)
	}
	if bv == nil {
		bv = new(big.Int)
	}
	return av.Cmp(bv)
}

// AmountToBigInt converts a uint64 amount to *big.Int.
func AmountToBigInt(amount uint64) *big.Int {
	return new(big.Int).SetUint64(amount)
}

func invalidAmount(input, reason string) error {
	return poolerr.WithDetails(poolerr.ErrInvalidAmount, map[string]string{
		"input":  input,
		"reason": reason,
	})
}
