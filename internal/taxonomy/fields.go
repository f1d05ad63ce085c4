package taxonomy

import (
	"regexp"
	"strings"
)

// Field keys in the stable vocabulary exposed to surrounding layers.
const (
	FieldMRP          = "mrp"
	FieldQuantity     = "quantity"
	FieldManufacturer = "manufacturer"
	FieldOrigin       = "origin"
	FieldSupport      = "support"
	FieldDates        = "dates"
	FieldBatch        = "batch"
	FieldLicense      = "license"
	FieldBarcode      = "barcode"
)

// countryRe matches a known country name inside an origin span. When one is
// found the whole span collapses to just the country name, uppercased.
var countryRe = regexp.MustCompile(`(?i)\b(india|usa|united states|uk|england|germany|france|italy|china|japan|korea|brazil|australia)\b`)

// CanonicalCountry returns the uppercased country name found inside span,
// or ("", false) when no known country appears.
func CanonicalCountry(span string) (string, bool) {
	m := countryRe.FindString(span)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

var nonDigitRe = regexp.MustCompile(`\D`)

// digitsOnly strips everything but digits; used to normalize license numbers.
func digitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// originCountry replaces an origin span with its canonical country name when
// one is present, otherwise keeps the raw span.
func originCountry(span string) string {
	if c, ok := CanonicalCountry(span); ok {
		return c
	}
	return span
}

// defaultFields is the canonical nine-field disclosure schema: four required
// fields whose absence lowers the score, five optional fields tracked for
// warnings only. Pattern order matters: the extractor reports matches in
// pattern-then-position order, and reconciliation takes the first candidate.
var defaultFields = []FieldSpec{
	{
		Key:      FieldMRP,
		Display:  "MRP",
		Required: true,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)m\.?r\.?p\.?\s*[:\-]?\s*(?:₹|rs\.?|inr)?\s*\d+(?:\.\d+)?`),
			regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)\s*\d+(?:\.\d+)?`),
		},
	},
	{
		Key:      FieldQuantity,
		Display:  "Net Quantity",
		Required: true,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)net\s*(?:wt\.?|weight|quantity)\s*[:\-]?\s*\d+(?:\.\d+)?\s*(?:kg|gm?s?|ml|l|grams?|litres?|liters?)\b`),
			regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:kg|g|ml|l|pcs?|pack)\b`),
		},
	},
	{
		Key:      FieldManufacturer,
		Display:  "Manufacturer",
		Required: true,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:marketed\s+by|manufactured\s+by|mf[gd]\.?\s*by|mktd\.?\s*by|packed\s+by)[:\-]?\s*(.+?)(?:\bnet\s|\bmrp\b|\bfssai\b|\n|$)`),
		},
	},
	{
		Key:      FieldOrigin,
		Display:  "Country of Origin",
		Required: true,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)country\s*of\s*origin\s*[:\-]?\s*([a-z ]+)`),
			regexp.MustCompile(`(?i)\bmade\s+in\s+([a-z ]+)`),
			regexp.MustCompile(`(?i)\bproduct\s+of\s+([a-z ]+)`),
		},
		Normalize: originCountry,
	},
	{
		Key:     FieldSupport,
		Display: "Consumer Care",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:customer\s*care|consumer\s*care|for\s+feedback|helpline)[:\-]?\s*(.+?)(?:\bnet\s|\bmrp\b|\bfssai\b|\n|$)`),
			regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`),
			regexp.MustCompile(`(?i)\b1800[\s\-]?\d{2,3}[\s\-]?\d{3,4}\b`),
		},
	},
	{
		Key:     FieldDates,
		Display: "Mfg/Expiry Dates",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:mfg|mfd|pkd|exp|best\s*before|use\s*by)[^:\-\d]*[:\-]?\s*\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}`),
			regexp.MustCompile(`(?i)best\s*before\s*\d+\s*(?:months?|days?|yrs?|years?)`),
		},
	},
	{
		Key:     FieldBatch,
		Display: "Batch/Lot Number",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:batch|lot)\s*(?:no\.?)?\s*[:\-]?\s*[a-z0-9\-]{3,}`),
		},
	},
	{
		Key:     FieldLicense,
		Display: "FSSAI License",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)fssai\s*lic\.?\s*no\.?\s*[:\-]?\s*\d+`),
			regexp.MustCompile(`(?i)fssai\s*[:\-]?\s*\d{10,14}`),
			regexp.MustCompile(`(?i)\blic\.?\s*no\.?\s*[:\-]?\s*\d+`),
		},
		Normalize: digitsOnly,
	},
	{
		Key:     FieldBarcode,
		Display: "Barcode",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{6,}\b`),
		},
	},
}

// Default returns the canonical Legal Metrology field registry. Each call
// builds a fresh Registry over the shared immutable spec table.
func Default() *Registry {
	return New(defaultFields)
}
