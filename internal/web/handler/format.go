package handler

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatUSD renders an amount in cents for display, e.g. $1,499 or $25.50.
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	dollars := humanize.Comma(cents / 100) //nolint:mnd
	if rest := cents % 100; rest != 0 {    //nolint:mnd
		return fmt.Sprintf("%s$%s.%02d", sign, dollars, rest)
	}

	return sign + "$" + dollars
}
