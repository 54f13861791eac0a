package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Cents is a monetary amount in hundredths of a dollar.
type Cents int64

// maxDollars keeps dollars*100 plus cents inside int64.
const maxDollars = math.MaxInt64/100 - 1

var moneyPrinter = message.NewPrinter(language.English)

// ParseMoney reads values such as "$850,000", "1,250,000.50" or "$ 99.9".
func ParseMoney(s string) (Cents, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	neg := strings.HasPrefix(clean, "-")
	clean = strings.TrimPrefix(clean, "-")
	if clean == "" {
		return 0, fmt.Errorf("parse money %q: empty amount", s)
	}

	whole, frac, hasFrac := strings.Cut(clean, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}

	if dollars > maxDollars {
		return 0, fmt.Errorf("parse money %q: amount too large", s)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("parse money %q: expected at most two decimal places", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse money %q: %w", s, err)
		}
	}

	total := Cents(dollars*100 + cents)
	if neg {
		total = -total
	}
	return total, nil
}

// Dollars rounds to whole dollars, halves away from zero.
func (c Cents) Dollars() int64 {
	if c < 0 {
		return -int64((-c + 50) / 100)
	}
	return int64((c + 50) / 100)
}

// String formats as "$1,234,567" with no fractional part.
func (c Cents) String() string {
	d := c.Dollars()
	if d < 0 {
		return moneyPrinter.Sprintf("-$%d", -d)
	}
	return moneyPrinter.Sprintf("$%d", d)
}
