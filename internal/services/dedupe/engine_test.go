package dedupe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

func contactConfig() Config {
	return Config{
		FuzzyThreshold:   85,
		KeyFields:        []string{"email", "name", "company"},
		ExactMatchFields: []string{"email"},
		SkipFields:       []string{"id", "created_at"},
	}
}

func record(id string, fields map[string]string) models.Record {
	rec := models.Record{ID: id}
	// Fixed field order keeps fixtures deterministic.
	for _, name := range []string{"email", "name", "company", "phone"} {
		if v, ok := fields[name]; ok {
			rec.Fields = append(rec.Fields, models.Field{Name: name, Value: models.StringValue(v)})
		}
	}
	return rec
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jhn doe", Normalize(models.StringValue(" Jöhn   Doe!! ")))
	assert.Equal(t, "acme corp", Normalize(models.StringValue("ACME, Corp.")))
	assert.Equal(t, "", Normalize(models.NullValue()))
	assert.Equal(t, "", Normalize(models.StringValue("!!!")))
	assert.Equal(t, "42", Normalize(models.NumberValue(42)))
	assert.Equal(t, "315", Normalize(models.NumberValue(3.15)))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{" Jöhn   Doe!! ", "ACME, Corp.", "already normal", "", "(555) 123-4567"}
	for _, in := range inputs {
		once := Normalize(models.StringValue(in))
		twice := Normalize(models.StringValue(once))
		assert.Equal(t, once, twice, "normalize should be idempotent for %q", in)
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Jon Smith", "John Smith"},
		{"acme", "globex"},
		{"", "nonempty"},
		{"a@x.com", "b@x.com"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"John Smith", "a@x.com", "ACME, Corp.", "42"} {
		assert.Equal(t, 100.0, Similarity(s, s))
	}
}

func TestSimilarityEmptySides(t *testing.T) {
	// One side empty after normalization scores zero.
	assert.Equal(t, 0.0, Similarity("", "something"))
	assert.Equal(t, 0.0, Similarity("!!!", "something"))
	// Both empty are treated as equal. Documented edge case.
	assert.Equal(t, 100.0, Similarity("", ""))
	assert.Equal(t, 100.0, Similarity("!!!", "..."))
}

func TestSimilarityEditDistanceFormula(t *testing.T) {
	// "jon smith" vs "john smith": one insertion over max length 10.
	assert.InDelta(t, 90.0, Similarity("Jon Smith", "John Smith"), 0.001)
}

func TestCompareRecordsExactAndFuzzyMatch(t *testing.T) {
	e := NewEngine(contactConfig())
	r1 := record("1", map[string]string{"email": "a@x.com", "name": "Jon Smith"})
	r2 := record("2", map[string]string{"email": "a@x.com", "name": "John Smith"})

	result := e.CompareRecords(r1, r2)

	assert.True(t, result.IsDuplicate)
	// Exact email contributes 100, name scores 90: average 95.
	assert.InDelta(t, 95.0, result.Confidence, 0.001)
	assert.Equal(t, []string{"email", "name"}, result.MatchingFields)
	require.NotNil(t, result.MatchedRecord)
	assert.Equal(t, "2", result.MatchedRecord.ID)
}

func TestCompareRecordsExactMatchVeto(t *testing.T) {
	e := NewEngine(contactConfig())
	r1 := record("1", map[string]string{"email": "a@x.com", "name": "John Smith", "company": "Acme"})
	r2 := record("2", map[string]string{"email": "b@x.com", "name": "John Smith", "company": "Acme"})

	result := e.CompareRecords(r1, r2)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Reason, "email")
	assert.Contains(t, result.Reason, "a@x.com")
	assert.Contains(t, result.Reason, "b@x.com")
	assert.Empty(t, result.MatchingFields)
	assert.Nil(t, result.MatchedRecord)
}

func TestCompareRecordsMinimumMatchesGate(t *testing.T) {
	e := NewEngine(contactConfig())
	// Only company present on both sides: one perfect field is not enough.
	r1 := record("1", map[string]string{"company": "Acme"})
	r2 := record("2", map[string]string{"company": "Acme"})

	result := e.CompareRecords(r1, r2)

	assert.False(t, result.IsDuplicate)
	assert.InDelta(t, 100.0, result.Confidence, 0.001)
	assert.Equal(t, []string{"company"}, result.MatchingFields)
}

func TestCompareRecordsExactFieldMissingOnOneSide(t *testing.T) {
	e := NewEngine(contactConfig())
	// Email absent on one side: no veto, no exact contribution.
	r1 := record("1", map[string]string{"email": "a@x.com", "name": "John Smith", "company": "Acme"})
	r2 := record("2", map[string]string{"name": "John Smith", "company": "Acme"})

	result := e.CompareRecords(r1, r2)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, []string{"name", "company"}, result.MatchingFields)
}

func TestCompareRecordsNoComparableFields(t *testing.T) {
	e := NewEngine(contactConfig())
	result := e.CompareRecords(models.Record{ID: "1"}, models.Record{ID: "2"})

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.MatchingFields)
}

func TestDetectDuplicatesSortedByConfidence(t *testing.T) {
	e := NewEngine(contactConfig())
	newRec := record("new", map[string]string{"email": "a@x.com", "name": "Jon Smith"})
	pool := []models.Record{
		record("p1", map[string]string{"email": "a@x.com", "name": "John Smith"}),
		record("p2", map[string]string{"email": "a@x.com", "name": "Jon Smith"}),
		record("p3", map[string]string{"email": "b@x.com", "name": "Jon Smith"}),
	}

	results := e.DetectDuplicates(newRec, pool)

	require.Len(t, results, 2)
	assert.Equal(t, "p2", results[0].MatchedRecord.ID)
	assert.Equal(t, "p1", results[1].MatchedRecord.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Confidence, results[i].Confidence)
	}
}

func TestDetectDuplicatesSkipsSelf(t *testing.T) {
	e := NewEngine(contactConfig())
	rec := record("same", map[string]string{"email": "a@x.com", "name": "John Smith"})

	results := e.DetectDuplicates(rec, []models.Record{rec})

	assert.Empty(t, results)
}

func TestDetectDuplicatesEmptyPool(t *testing.T) {
	e := NewEngine(contactConfig())
	rec := record("1", map[string]string{"email": "a@x.com"})

	assert.Empty(t, e.DetectDuplicates(rec, nil))
}

func TestBatchDeduplicatePartition(t *testing.T) {
	e := NewEngine(contactConfig())
	records := []models.Record{
		record("1", map[string]string{"email": "a@x.com", "name": "John Smith"}),
		record("2", map[string]string{"email": "a@x.com", "name": "Jon Smith"}),
		record("3", map[string]string{"email": "a@x.com", "name": "John Smyth"}),
	}

	outcome := e.BatchDeduplicate(records, nil)

	require.Len(t, outcome.Unique, 1)
	assert.Equal(t, "1", outcome.Unique[0].ID)
	require.Len(t, outcome.Duplicates, 2)
	for _, dup := range outcome.Duplicates {
		assert.Equal(t, "1", dup.DuplicateOf.ID)
		assert.GreaterOrEqual(t, dup.Confidence, e.Config().FuzzyThreshold)
	}
}

func TestBatchDeduplicateProgressCadence(t *testing.T) {
	e := NewEngine(contactConfig())
	records := make([]models.Record, 120)
	for i := range records {
		records[i] = record(fmt.Sprintf("rec-%d", i), map[string]string{"name": fmt.Sprintf("user %d", i)})
	}

	var snapshots []Progress
	e.BatchDeduplicate(records, func(p Progress) {
		snapshots = append(snapshots, p)
	})

	require.Len(t, snapshots, 3)
	assert.Equal(t, 0, snapshots[0].Processed)
	assert.Equal(t, 50, snapshots[1].Processed)
	assert.Equal(t, 100, snapshots[2].Processed)
	for _, p := range snapshots {
		assert.Equal(t, 120, p.Total)
	}
}

// Past 100 unique records the batch switches from pairwise scoring to the
// token index. The pairwise path never flags a single-field match (two
// matching fields required) but the field-blind index does, so a target that
// stays unique in a small batch is folded as a duplicate after the switch.
func TestBatchDeduplicateMethodSwitchBoundary(t *testing.T) {
	e := NewEngine(Config{
		FuzzyThreshold: 80,
		KeyFields:      []string{"name", "email"},
	})

	acme := record("acme", map[string]string{"name": "Acme Corporation", "email": "info@acme.com"})
	target := record("target", map[string]string{"name": "Acme Corporation"})

	small := e.BatchDeduplicate([]models.Record{acme, target}, nil)
	assert.Len(t, small.Unique, 2, "pairwise path keeps the single-field match unique")
	assert.Empty(t, small.Duplicates)

	// Single-field fillers can never pair up (minimum-matches gate), so the
	// unique pool is guaranteed to pass 100 before the target arrives.
	big := []models.Record{acme}
	for i := 0; i < 100; i++ {
		big = append(big, record(fmt.Sprintf("filler-%d", i), map[string]string{"name": fmt.Sprintf("filler %03d", i)}))
	}
	big = append(big, target)

	outcome := e.BatchDeduplicate(big, nil)

	require.Len(t, outcome.Duplicates, 1)
	assert.Equal(t, "target", outcome.Duplicates[0].Record.ID)
	assert.Equal(t, "acme", outcome.Duplicates[0].DuplicateOf.ID)
	assert.Len(t, outcome.Unique, 101)
}

func TestBatchDeduplicateEmptyInput(t *testing.T) {
	e := NewEngine(contactConfig())
	outcome := e.BatchDeduplicate(nil, nil)

	assert.Empty(t, outcome.Unique)
	assert.Empty(t, outcome.Duplicates)
}
