// Package money provides a fixed-point monetary amount with an exact
// two-decimal wire representation. Amounts are stored as numeric columns and
// serialized as strings like "300.00"; binary floating point never touches
// ledger math.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Amount is an exact decimal dollar amount.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
func Zero() Amount {
	return Amount{d: decimal.Zero}
}

// FromDecimal wraps a decimal as an Amount, rounded to cents.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.Round(2)}
}

// FromCents builds an Amount from an integer number of cents.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -2)}
}

// Parse reads a decimal string such as "300.00".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return Amount{}, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return Amount{d: d.Round(2)}, nil
}

// MustParse is Parse for literals in tests and seed data.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }
func (a Amount) Neg() Amount         { return Amount{d: a.d.Neg()} }

// MulInt multiplies by a whole quantity. Exact, no rounding needed.
func (a Amount) MulInt(n int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))}
}

// MulPct returns a×pct/100 rounded half-up to the cent.
func (a Amount) MulPct(pct int) Amount {
	return Amount{d: a.d.Mul(decimal.New(int64(pct), -2)).Round(2)}
}

func (a Amount) Cmp(b Amount) int      { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool   { return a.d.Equal(b.d) }
func (a Amount) IsZero() bool          { return a.d.IsZero() }
func (a Amount) IsNegative() bool      { return a.d.IsNegative() }
func (a Amount) IsPositive() bool      { return a.d.IsPositive() }
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// FloorZero returns the amount, or zero when negative. Balances never go
// below zero on over-payment.
func (a Amount) FloorZero() Amount {
	if a.d.IsNegative() {
		return Zero()
	}
	return a
}

// Decimal exposes the underlying decimal for callers that need raw math.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// String renders with exactly two fractional digits.
func (a Amount) String() string { return a.d.StringFixed(2) }

// MarshalJSON renders the amount as a quoted fixed-point string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts either "300.00" or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var d decimal.Decimal
		if derr := json.Unmarshal(data, &d); derr != nil {
			return fmt.Errorf("invalid amount %s", string(data))
		}
		parsed, perr := Parse(d.String())
		if perr != nil {
			return perr
		}
		*a = parsed
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.d.StringFixed(2), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	a.d = d.Round(2)
	return nil
}

// GormDBDataType keeps the column fixed-point on every supported driver.
func (Amount) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "numeric(12,2)"
	default:
		return "numeric"
	}
}

// Sum adds a slice of amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
