package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealcheck/lmscan/internal/taxonomy"
)

const sampleLabel = `Corn Flakes 475g Family Pack.
MRP: Rs. 199 (incl. of all taxes) Net Wt 475g
Marketed by Kellogg India Pvt Ltd
Country of Origin: India
Customer Care: care@kelloggs.co.in FSSAI Lic. No. 10012011000123
Batch No. KF-4821 Best Before 9 months
8901234567890`

func TestExtractSampleLabel(t *testing.T) {
	e := New(taxonomy.Default())
	cs := e.Extract(sampleLabel)

	require.Contains(t, cs, taxonomy.FieldMRP)
	assert.Equal(t, "MRP: Rs. 199", cs[taxonomy.FieldMRP][0])

	require.Contains(t, cs, taxonomy.FieldQuantity)
	assert.Equal(t, "Net Wt 475g", cs[taxonomy.FieldQuantity][0])

	require.Contains(t, cs, taxonomy.FieldManufacturer)
	assert.Contains(t, cs[taxonomy.FieldManufacturer][0], "Kellogg India Pvt Ltd")

	require.Contains(t, cs, taxonomy.FieldOrigin)
	assert.Equal(t, "INDIA", cs[taxonomy.FieldOrigin][0])

	require.Contains(t, cs, taxonomy.FieldLicense)
	assert.Equal(t, []string{"10012011000123"}, cs[taxonomy.FieldLicense])

	require.Contains(t, cs, taxonomy.FieldBatch)
	require.Contains(t, cs, taxonomy.FieldDates)
	require.Contains(t, cs, taxonomy.FieldSupport)
}

func TestExtractEmptyText(t *testing.T) {
	e := New(taxonomy.Default())

	assert.Empty(t, e.Extract(""))
	assert.Empty(t, e.Extract("   \n\t  "))
}

func TestExtractDeduplicatesAfterWhitespaceCollapse(t *testing.T) {
	e := New(taxonomy.Default())
	cs := e.Extract("MRP: Rs. 99 and again MRP:   Rs.   99")

	// The labeled pattern collapses to one candidate; the bare currency
	// pattern contributes its own deduplicated form.
	assert.Equal(t, []string{"MRP: Rs. 99", "Rs. 99"}, cs[taxonomy.FieldMRP])
}

func TestBarcodeExcludesLicenseDigits(t *testing.T) {
	e := New(taxonomy.Default())
	cs := e.Extract("FSSAI Lic. No. 10012011000123 EAN 8901234567890")

	assert.Equal(t, []string{"10012011000123"}, cs[taxonomy.FieldLicense])
	assert.Equal(t, []string{"8901234567890"}, cs[taxonomy.FieldBarcode])
}

func TestLicenseNumbersSortedAscending(t *testing.T) {
	e := New(taxonomy.Default())
	cs := e.Extract("FSSAI Lic. No. 20012011000999 imported under FSSAI Lic. No. 10012011000123")

	assert.Equal(t, []string{"10012011000123", "20012011000999"}, cs[taxonomy.FieldLicense])
}

func TestRelevant(t *testing.T) {
	e := New(taxonomy.Default())

	assert.True(t, e.Relevant("MRP: Rs. 50 Net Wt 100g"))
	assert.False(t, e.Relevant("free shipping on orders above 499"))
	assert.False(t, e.Relevant("customer reviews and ratings"))
}
