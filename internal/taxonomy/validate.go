package taxonomy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	amountRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	unitRe   = regexp.MustCompile(`(?i)\d\s*(?:kg|gm?s?|mg|ml|l|litres?|liters?|grams?|pcs?|pack|pieces?|units?)\b`)
)

// ParseMRP extracts the numeric price from a declared MRP value, which may
// still carry its label and currency marker ("MRP: Rs. 1,299.00"). The price
// must be strictly positive to count as valid.
func ParseMRP(value string) (float64, error) {
	cleaned := strings.ReplaceAll(value, ",", "")
	m := amountRe.FindString(cleaned)
	if m == "" {
		return 0, eris.Errorf("taxonomy: no numeric amount in %q", value)
	}
	amount, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, eris.Wrap(err, "taxonomy: parse amount")
	}
	if amount <= 0 {
		return 0, eris.Errorf("taxonomy: amount %v is not positive", amount)
	}
	return amount, nil
}

// HasUnit reports whether a quantity declaration carries a recognizable
// measurement unit next to a digit ("250g", "1 L", "6 pcs").
func HasUnit(value string) bool {
	return unitRe.MatchString(value)
}
