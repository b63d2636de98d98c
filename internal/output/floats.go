// Package output normalizes numbers for deterministic score reports.
package output

import (
	"math"
	"strconv"
	"strings"
)

// RoundScore rounds a score to 6 decimal places so reports are stable
// across runs and platforms.
func RoundScore(f float64) float64 {
	multiplier := math.Pow(10, 6)
	return math.Round(f*multiplier) / multiplier
}

// FormatScore formats a score with no trailing zeros.
func FormatScore(f float64) string {
	str := strconv.FormatFloat(RoundScore(f), 'f', 6, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	return str
}
