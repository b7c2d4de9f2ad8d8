package valueobject

import "fmt"

// FormatPercent renders a fractional rate (0.043) as a percentage with two
// decimals ("4.30%").
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
