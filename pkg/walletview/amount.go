package walletview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// AmountKind discriminates how a backend amount was declared.
type AmountKind string

const (
	// AmountKindMinor marks a value expressed in minor units (kobo).
	AmountKindMinor AmountKind = "minor"
	// AmountKindMajor marks a value expressed in major units (naira).
	AmountKindMajor AmountKind = "major"
	// AmountKindUnknown marks an absent or unparseable value, rendered as zero.
	AmountKindUnknown AmountKind = "unknown"
)

// Backend amount payloads declare minor units under one of these keys,
// checked in priority order.
var objectAmountKeys = []string{"kobo", "amount", "balance"}

// Amount is a monetary value normalized once at the API boundary.
// Every backend-sourced amount is minor-unit kobo; conversion to major
// units happens exactly here and nowhere else.
type Amount struct {
	kind  AmountKind
	minor decimal.Decimal
}

// NewMinorAmount builds an Amount from integer minor units.
func NewMinorAmount(minorUnits int64) Amount {
	return Amount{kind: AmountKindMinor, minor: decimal.NewFromInt(minorUnits)}
}

// NewMajorAmount builds an Amount from a major-unit decimal.
func NewMajorAmount(majorUnits decimal.Decimal) Amount {
	return Amount{kind: AmountKindMajor, minor: majorUnits.Mul(decimal.NewFromInt(100))}
}

// ZeroAmount is the fail-open value for absent or malformed inputs.
func ZeroAmount() Amount {
	return Amount{kind: AmountKindUnknown, minor: decimal.Zero}
}

// Kind reports how the value was declared.
func (amount Amount) Kind() AmountKind {
	return amount.kind
}

// MinorUnits returns the value in kobo, truncated to an integer.
func (amount Amount) MinorUnits() int64 {
	return amount.minor.IntPart()
}

// MajorUnits returns the value in naira.
func (amount Amount) MajorUnits() decimal.Decimal {
	return amount.minor.Div(decimal.NewFromInt(100))
}

// IsZero reports whether the amount renders as zero.
func (amount Amount) IsZero() bool {
	return amount.minor.IsZero()
}

// UnmarshalJSON accepts every amount shape the backend emits: a bare
// number, a numeric string, or an object carrying the value under one
// of the known keys. Anything else decodes to the zero amount rather
// than failing the surrounding document.
func (amount *Amount) UnmarshalJSON(raw []byte) error {
	*amount = decodeAmount(raw)
	return nil
}

// MarshalJSON emits the minor-unit value.
func (amount Amount) MarshalJSON() ([]byte, error) {
	return []byte(amount.minor.String()), nil
}

func decodeAmount(raw []byte) Amount {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ZeroAmount()
	}
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return ZeroAmount()
		}
		for _, key := range objectAmountKeys {
			value, present := fields[key]
			if !present {
				continue
			}
			if parsed, ok := parseScalarAmount(value); ok {
				return parsed
			}
		}
		return ZeroAmount()
	}
	if parsed, ok := parseScalarAmount(raw); ok {
		return parsed
	}
	return ZeroAmount()
}

func parseScalarAmount(raw []byte) (Amount, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ZeroAmount(), false
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return ZeroAmount(), false
		}
		trimmed = strings.TrimSpace(text)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return ZeroAmount(), false
	}
	return Amount{kind: AmountKindMinor, minor: value}, true
}

// ParseMajorAmount converts user-entered major-unit input ("1,500.00",
// "1500", "1500,50") into an Amount. Comma decimal separators are
// tolerated, thousands separators are not. The amount must be strictly
// positive; the third decimal place rounds half-up.
func ParseMajorAmount(raw string) (Amount, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Amount{}, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	if strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "-") {
		return Amount{}, fmt.Errorf("%w: signed value", ErrInvalidAmount)
	}
	if strings.Count(trimmed, ",") == 1 && !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !value.IsPositive() {
		return Amount{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return NewMajorAmount(value.Round(2)), nil
}

// Formatter renders amounts as locale-aware currency strings.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a Formatter for a BCP 47 locale tag and currency symbol.
func NewFormatter(localeTag string, symbol string) (Formatter, error) {
	tag, err := language.Parse(localeTag)
	if err != nil {
		return Formatter{}, fmt.Errorf("%w: %q", ErrInvalidLocale, localeTag)
	}
	return Formatter{printer: message.NewPrinter(tag), symbol: symbol}, nil
}

// NewNairaFormatter builds the default en-NG naira formatter.
func NewNairaFormatter() Formatter {
	formatter, err := NewFormatter("en-NG", "₦")
	if err != nil {
		panic(err)
	}
	return formatter
}

// Format renders the magnitude of an amount with the currency symbol,
// thousands separators, and exactly two fraction digits. Direction is a
// classifier concern, so the rendered value is always non-negative. The
// integer part is formatted from the exact decimal, never through
// float64, so large balances keep every digit.
func (formatter Formatter) Format(amount Amount) string {
	major := amount.MajorUnits().Abs().Round(2)
	units := major.Truncate(0)
	fraction := major.Sub(units).Shift(2).IntPart()
	unitsBig := units.BigInt()
	if unitsBig.IsInt64() {
		return formatter.printer.Sprintf("%s%v.%02d",
			formatter.symbol, number.Decimal(unitsBig.Int64()), fraction)
	}
	return fmt.Sprintf("%s%s.%02d", formatter.symbol, groupDigits(unitsBig.String()), fraction)
}

// groupDigits inserts comma separators into a plain digit string, used
// only for magnitudes past int64 range.
func groupDigits(digits string) string {
	var grouped strings.Builder
	for index, digit := range digits {
		if index > 0 && (len(digits)-index)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	return grouped.String()
}
