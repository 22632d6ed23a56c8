package core

import (
	"fmt"
	"math"
	"strconv"
)

// FormatCurrency renders a dollar amount with thousands separators and no
// decimals, e.g. 1234567.8 -> "$1,234,568".
func FormatCurrency(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "$0"
	}
	neg := value < 0
	n := int64(math.Round(math.Abs(value)))

	s := strconv.FormatInt(n, 10)
	var grouped []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, digit)
	}
	if neg {
		return "-$" + string(grouped)
	}
	return "$" + string(grouped)
}

// FormatPercent renders a percentage with one decimal, e.g. 45.123 -> "45.1%".
func FormatPercent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", value)
}
