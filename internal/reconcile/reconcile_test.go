package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

func TestHigherPriorityOverwrites(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	_, ok := r.Apply(resolved, taxonomy.FieldMRP, "Rs. 180", model.SourceScrape)
	require.True(t, ok)

	entry, ok := r.Apply(resolved, taxonomy.FieldMRP, "MRP: Rs. 199", model.SourceText)
	require.True(t, ok)
	assert.True(t, entry.Overwrite)
	assert.Equal(t, "Rs. 180", entry.Old)
	assert.Equal(t, "MRP: Rs. 199", resolved.Get(taxonomy.FieldMRP))
}

func TestLowerPriorityNeverOverwrites(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	_, ok := r.Apply(resolved, taxonomy.FieldMRP, "MRP: Rs. 199", model.SourceText)
	require.True(t, ok)

	_, ok = r.Apply(resolved, taxonomy.FieldMRP, "Rs. 180", model.SourceScrape)
	assert.False(t, ok)
	assert.Equal(t, "MRP: Rs. 199", resolved.Get(taxonomy.FieldMRP))
}

func TestEqualPriorityKeepsFirst(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	_, ok := r.Apply(resolved, taxonomy.FieldOrigin, "INDIA", model.SourceText)
	require.True(t, ok)

	_, ok = r.Apply(resolved, taxonomy.FieldOrigin, "CHINA", model.SourceRecognized)
	assert.False(t, ok)
	assert.Equal(t, "INDIA", resolved.Get(taxonomy.FieldOrigin))
}

func TestFillOnlyFillsButNeverOverwrites(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	entry, ok := r.Apply(resolved, taxonomy.FieldOrigin, "INDIA", model.SourceLLM)
	require.True(t, ok)
	assert.False(t, entry.Overwrite)

	// Even against the value it set itself, a fill-only source cannot write
	// a second time.
	_, ok = r.Apply(resolved, taxonomy.FieldOrigin, "CHINA", model.SourceLLM)
	assert.False(t, ok)
	assert.Equal(t, "INDIA", resolved.Get(taxonomy.FieldOrigin))
}

func TestFillOnlyValueYieldsToRealSource(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	_, ok := r.Apply(resolved, taxonomy.FieldQuantity, "500g", model.SourceLLM)
	require.True(t, ok)

	entry, ok := r.Apply(resolved, taxonomy.FieldQuantity, "Net Wt 475g", model.SourceScrape)
	require.True(t, ok)
	assert.True(t, entry.Overwrite)
	assert.Equal(t, "Net Wt 475g", resolved.Get(taxonomy.FieldQuantity))
}

func TestEmptyOfferRejected(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	_, ok := r.Apply(resolved, taxonomy.FieldMRP, "   ", model.SourceText)
	assert.False(t, ok)
	assert.True(t, resolved.Empty(taxonomy.FieldMRP))
}

func TestMergeTakesFirstCandidatePerField(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	cs := model.CandidateSet{
		taxonomy.FieldMRP:    {"MRP: Rs. 199", "Rs. 210"},
		taxonomy.FieldOrigin: {"INDIA"},
	}
	audit := r.Merge(resolved, cs, model.SourceText)

	require.Len(t, audit, 2)
	assert.Equal(t, "MRP: Rs. 199", resolved.Get(taxonomy.FieldMRP))
	assert.Equal(t, "INDIA", resolved.Get(taxonomy.FieldOrigin))
}

func TestMergeIsIdempotent(t *testing.T) {
	r := New(taxonomy.Default())
	resolved := model.NewResolvedFields()

	cs := model.CandidateSet{taxonomy.FieldMRP: {"MRP: Rs. 199"}}
	first := r.Merge(resolved, cs, model.SourceText)
	second := r.Merge(resolved, cs, model.SourceText)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, "MRP: Rs. 199", resolved.Get(taxonomy.FieldMRP))
}
