package models

import (
	"database/sql/driver"
	"math"
	"strconv"
	"strings"
)

// Amount is a stored monetary value. Scanning never fails: NULL, text that
// does not parse, NaN and infinities all read as 0.
type Amount float64

// Scan implements sql.Scanner
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case float64:
		*a = finiteAmount(v)
	case float32:
		*a = finiteAmount(float64(v))
	case int64:
		*a = Amount(v)
	case []byte:
		*a = parseAmount(string(v))
	case string:
		*a = parseAmount(v)
	default:
		*a = 0
	}
	return nil
}

// Value implements driver.Valuer
func (a Amount) Value() (driver.Value, error) {
	return float64(finiteAmount(float64(a))), nil
}

// Float64 returns the amount with non-finite values replaced by 0
func (a Amount) Float64() float64 {
	return float64(finiteAmount(float64(a)))
}

func parseAmount(s string) Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finiteAmount(f)
}

func finiteAmount(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Amount(f)
}
