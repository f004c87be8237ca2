package scrape

import (
	"strconv"
	"strings"
)

const (
	feetToCM   = 30.48
	inchesToCM = 2.54
	poundsToKG = 0.453592
)

// FeetInchesToCM converts a "6-8" height to centimetres. Malformed input
// yields "" so the loader stores NULL.
func FeetInchesToCM(height string) string {
	feet, inches, ok := strings.Cut(strings.TrimSpace(height), "-")
	if !ok {
		return ""
	}
	f, err := strconv.Atoi(feet)
	if err != nil {
		return ""
	}
	i, err := strconv.Atoi(inches)
	if err != nil {
		return ""
	}
	return formatFloat(float64(f)*feetToCM + float64(i)*inchesToCM)
}

// PoundsToKG converts a weight in pounds to kilograms, "" when malformed.
func PoundsToKG(weight string) string {
	lb, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil {
		return ""
	}
	return formatFloat(lb * poundsToKG)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
