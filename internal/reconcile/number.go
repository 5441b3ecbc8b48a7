package reconcile

import (
	"strconv"
	"strings"
)

// ParseColombianNumber parses an amount that may use Colombian formatting,
// where "." separates thousands and "," is the decimal mark. Currency symbols
// and whitespace are stripped first.
//
//	"137.310.992" -> 137310992
//	"1.234,56"    -> 1234.56
//	"123.45"      -> 123.45
func ParseColombianNumber(value string) (float64, error) {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "COP", "")
	s = strings.ReplaceAll(s, " ", "")

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		// 1.234.567,89: dots are thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasDot:
		if strings.Count(s, ".") > 1 {
			// Multiple dots can only be thousands separators.
			s = strings.ReplaceAll(s, ".", "")
		} else {
			// A single dot with exactly three trailing digits in a long
			// string reads as a thousands separator ("137.310" vs "123.45").
			parts := strings.SplitN(s, ".", 2)
			if len(parts) == 2 && len(parts[1]) == 3 && len(s) > 6 {
				s = strings.ReplaceAll(s, ".", "")
			}
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	return strconv.ParseFloat(s, 64)
}
