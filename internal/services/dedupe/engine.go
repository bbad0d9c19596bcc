package dedupe

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

// Config fixes the comparison rules for one engine instance. Exact-match
// fields veto the whole comparison on a mismatch; skip fields never take part
// in scoring (ids, timestamps).
type Config struct {
	FuzzyThreshold   float64
	KeyFields        []string
	ExactMatchFields []string
	SkipFields       []string
}

type Engine struct {
	cfg   Config
	skip  map[string]bool
	exact map[string]bool
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		cfg:   cfg,
		skip:  make(map[string]bool, len(cfg.SkipFields)),
		exact: make(map[string]bool, len(cfg.ExactMatchFields)),
	}
	for _, f := range cfg.SkipFields {
		e.skip[f] = true
	}
	for _, f := range cfg.ExactMatchFields {
		e.exact[f] = true
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

// ComparisonResult is the verdict for one record pair.
type ComparisonResult struct {
	IsDuplicate    bool           `json:"is_duplicate"`
	Confidence     float64        `json:"confidence"`
	MatchedRecord  *models.Record `json:"matched_record,omitempty"`
	MatchingFields []string       `json:"matching_fields"`
	Reason         string         `json:"reason"`
}

// DuplicateEntry ties a batch input record to the unique record it was folded
// into.
type DuplicateEntry struct {
	Record      models.Record `json:"record"`
	DuplicateOf models.Record `json:"duplicate_of"`
	Confidence  float64       `json:"confidence"`
}

// BatchOutcome partitions a batch into first-seen records and duplicates.
type BatchOutcome struct {
	Unique     []models.Record  `json:"unique"`
	Duplicates []DuplicateEntry `json:"duplicates"`
}

// Progress is emitted every progressInterval records during a batch.
type Progress struct {
	Processed       int `json:"processed"`
	Total           int `json:"total"`
	DuplicatesFound int `json:"duplicates_found"`
}

const (
	// progressInterval is the batch index cadence for progress callbacks.
	progressInterval = 50
	// fastSearchFloor is the unique-pool size above which batch dedupe
	// switches from pairwise scoring to the token index. Pairwise cost grows
	// quadratically with the pool.
	fastSearchFloor = 100
)

// Normalize canonicalizes a field value for comparison: null becomes the
// empty string, everything else is lower-cased, stripped of non-word
// characters, and has whitespace runs collapsed. Formatting differences never
// cause a false negative downstream.
func Normalize(v models.FieldValue) string {
	if v.IsNull() {
		return ""
	}
	return normalizeString(v.String())
}

func normalizeString(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity scores two raw strings on [0,100] using normalized Levenshtein
// distance. Identical normalized strings score 100 (two empties included);
// one empty side scores 0. Symmetric in its arguments.
func Similarity(a, b string) float64 {
	return similarityNormalized(normalizeString(a), normalizeString(b))
}

func similarityNormalized(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := max(len(a), len(b))
	dist := levenshtein(a, b)
	return float64(maxLen-dist) / float64(maxLen) * 100
}

// CompareRecords scores one record pair under the engine config. A mismatch
// on any exact-match field present on both sides short-circuits to a
// non-duplicate verdict no matter how similar the rest of the record looks.
func (e *Engine) CompareRecords(r1, r2 models.Record) ComparisonResult {
	totalScore := 0.0
	comparedFields := 0
	matchingFields := []string{}

	// 1. Exact-match veto
	for _, name := range e.cfg.ExactMatchFields {
		v1, ok1 := r1.Get(name)
		v2, ok2 := r2.Get(name)
		if !ok1 || !ok2 {
			continue
		}
		n1 := Normalize(v1)
		n2 := Normalize(v2)
		if n1 == "" || n2 == "" {
			continue
		}
		if n1 != n2 {
			return ComparisonResult{
				IsDuplicate:    false,
				Confidence:     0,
				MatchingFields: []string{},
				Reason:         fmt.Sprintf("exact match field %q differs: %q vs %q", name, v1.String(), v2.String()),
			}
		}
		// Passed exact fields count once, at full score.
		totalScore += 100
		comparedFields++
		matchingFields = append(matchingFields, name)
	}

	// 2. Fuzzy score the remaining key fields
	for _, name := range e.cfg.KeyFields {
		if e.skip[name] || e.exact[name] {
			continue
		}
		v1, ok1 := r1.Get(name)
		v2, ok2 := r2.Get(name)
		if !ok1 || !ok2 {
			continue
		}
		n1 := Normalize(v1)
		n2 := Normalize(v2)
		if n1 == "" || n2 == "" {
			continue
		}
		sim := similarityNormalized(n1, n2)
		totalScore += sim
		comparedFields++
		if sim >= e.cfg.FuzzyThreshold {
			matchingFields = append(matchingFields, name)
		}
	}

	avg := 0.0
	if comparedFields > 0 {
		avg = totalScore / float64(comparedFields)
	}

	// A single strong field is not enough: at least two fields must match and
	// the average must clear the threshold.
	isDuplicate := avg >= e.cfg.FuzzyThreshold && len(matchingFields) >= 2

	result := ComparisonResult{
		IsDuplicate:    isDuplicate,
		Confidence:     avg,
		MatchingFields: matchingFields,
		Reason:         fmt.Sprintf("%d matching fields with %.0f%% average confidence", len(matchingFields), math.Round(avg)),
	}
	if isDuplicate {
		matched := r2
		result.MatchedRecord = &matched
	}
	return result
}

// DetectDuplicates compares newRecord against every record in the pool and
// returns the duplicate verdicts ordered by descending confidence (input
// order preserved on ties). O(n) comparisons, each O(len1*len2) for the
// Levenshtein step, so only suitable for small pools.
func (e *Engine) DetectDuplicates(newRecord models.Record, existingRecords []models.Record) []ComparisonResult {
	results := []ComparisonResult{}
	for _, existing := range existingRecords {
		if existing.ID != "" && existing.ID == newRecord.ID {
			continue
		}
		cmp := e.CompareRecords(newRecord, existing)
		if cmp.IsDuplicate {
			results = append(results, cmp)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// BatchDeduplicate partitions records into first-seen uniques and duplicates.
// While the unique pool stays small it uses exhaustive pairwise scoring;
// past fastSearchFloor it switches to the approximate token index, trading
// field-aware precision for a flat scan cost. onProgress (optional) fires at
// record indices 0, 50, 100, ...
func (e *Engine) BatchDeduplicate(records []models.Record, onProgress func(Progress)) BatchOutcome {
	unique := []models.Record{}
	duplicates := []DuplicateEntry{}

	for i, rec := range records {
		if i%progressInterval == 0 && onProgress != nil {
			onProgress(Progress{
				Processed:       i,
				Total:           len(records),
				DuplicatesFound: len(duplicates),
			})
		}

		var results []ComparisonResult
		if len(unique) <= fastSearchFloor {
			results = e.DetectDuplicates(rec, unique)
		} else {
			results = e.FastDuplicateSearch(rec, unique, e.cfg.FuzzyThreshold)
		}

		if len(results) > 0 && results[0].MatchedRecord != nil {
			best := results[0]
			duplicates = append(duplicates, DuplicateEntry{
				Record:      rec,
				DuplicateOf: *best.MatchedRecord,
				Confidence:  best.Confidence,
			})
			continue
		}
		unique = append(unique, rec)
	}

	return BatchOutcome{Unique: unique, Duplicates: duplicates}
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		dp[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			dp[i][j] = min(
				dp[i-1][j]+1,
				dp[i][j-1]+1,
				dp[i-1][j-1]+cost,
			)
		}
	}
	return dp[len(a)][len(b)]
}
