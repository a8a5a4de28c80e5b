package model

import (
	"strconv"
	"strings"
)

// FormatAmount renders a money amount the way the data files store it:
// shortest representation, always with a fractional part ("100.0", "12.5").
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func ParseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
