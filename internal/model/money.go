package model

import "strconv"

// Chilean pesos have no subunits in this domain: every amount is a
// whole-peso int64 and all arithmetic stays in integers. No float
// conversions anywhere in the money path.

// FormatCLP renders an amount with es-CL thousand separators.
// Examples: 0 → "0", 7990 → "7.990", 1234567 → "1.234.567".
func FormatCLP(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	if len(s) > 3 {
		var out []byte
		lead := len(s) % 3
		if lead > 0 {
			out = append(out, s[:lead]...)
		}
		for i := lead; i < len(s); i += 3 {
			if len(out) > 0 {
				out = append(out, '.')
			}
			out = append(out, s[i:i+3]...)
		}
		s = string(out)
	}

	if neg {
		return "-" + s
	}
	return s
}

// DisplayCLP renders an amount the way the store shows prices.
// Example: 30980 → "$30.980 CLP".
func DisplayCLP(amount int64) string {
	return "$" + FormatCLP(amount) + " CLP"
}
