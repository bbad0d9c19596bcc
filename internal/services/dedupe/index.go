package dedupe

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

// recordIndex is a token index over "field:value" texts. Search scores every
// candidate (exhaustive match): each query token takes its best similarity
// against the candidate's tokens, an exact posting hit counting as 1.0
// outright, and the candidate's score is one minus the averaged similarity.
// Scores therefore sit in [0,1] with lower meaning a closer match.
type recordIndex struct {
	records  []models.Record
	tokens   [][]string
	postings map[string][]int
}

type scoredHit struct {
	index int
	score float64
}

func newRecordIndex(records []models.Record, skip map[string]bool) *recordIndex {
	ix := &recordIndex{
		records:  records,
		tokens:   make([][]string, len(records)),
		postings: make(map[string][]int),
	}
	for i, rec := range records {
		toks := searchTokens(rec, skip)
		ix.tokens[i] = toks
		for _, t := range toks {
			ids := ix.postings[t]
			if len(ids) == 0 || ids[len(ids)-1] != i {
				ix.postings[t] = append(ids, i)
			}
		}
	}
	return ix
}

// searchTokens flattens a record into its searchable text, one token per word
// of every non-skipped "fieldName:normalizedValue" entry. Fields that
// normalize to empty contribute nothing.
func searchTokens(rec models.Record, skip map[string]bool) []string {
	var tokens []string
	for _, f := range rec.Fields {
		if skip[f.Name] {
			continue
		}
		norm := Normalize(f.Value)
		if norm == "" {
			continue
		}
		words := strings.Fields(norm)
		tokens = append(tokens, f.Name+":"+words[0])
		tokens = append(tokens, words[1:]...)
	}
	return tokens
}

func (ix *recordIndex) search(queryTokens []string) []scoredHit {
	if len(queryTokens) == 0 {
		return nil
	}

	exact := make(map[int]map[string]bool)
	for _, qt := range queryTokens {
		for _, id := range ix.postings[qt] {
			if exact[id] == nil {
				exact[id] = make(map[string]bool)
			}
			exact[id][qt] = true
		}
	}

	hits := make([]scoredHit, 0, len(ix.records))
	for i := range ix.records {
		simSum := 0.0
		for _, qt := range queryTokens {
			if exact[i][qt] {
				simSum += 1.0
				continue
			}
			best := 0.0
			for _, ct := range ix.tokens[i] {
				if sim := similarityNormalized(qt, ct) / 100; sim > best {
					best = sim
				}
			}
			simSum += best
		}
		hits = append(hits, scoredHit{index: i, score: 1 - simSum/float64(len(queryTokens))})
	}
	return hits
}

// FastDuplicateSearch finds likely duplicates of target in pool via the token
// index instead of pairwise field scoring. The index is field-blind, so its
// verdicts can differ from DetectDuplicates on the same data; confidence is
// derived from the index score as (1-score)*100 and gated on threshold.
// Matching field names are recomputed pairwise against each hit, for the
// explanation only.
func (e *Engine) FastDuplicateSearch(target models.Record, pool []models.Record, threshold float64) []ComparisonResult {
	queryTokens := searchTokens(target, e.skip)
	ix := newRecordIndex(pool, e.skip)

	results := []ComparisonResult{}
	for _, hit := range ix.search(queryTokens) {
		candidate := pool[hit.index]
		if candidate.ID != "" && candidate.ID == target.ID {
			continue
		}
		confidence := (1 - hit.score) * 100
		if confidence < threshold {
			continue
		}
		matched := candidate
		results = append(results, ComparisonResult{
			IsDuplicate:    true,
			Confidence:     confidence,
			MatchedRecord:  &matched,
			MatchingFields: e.matchingFieldNames(target, candidate),
			Reason:         fmt.Sprintf("approximate token match with %.0f%% confidence", math.Round(confidence)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// matchingFieldNames re-scores key fields pairwise against one candidate so a
// fast-search result still names the fields that agree.
func (e *Engine) matchingFieldNames(r1, r2 models.Record) []string {
	names := []string{}
	for _, name := range e.cfg.KeyFields {
		if e.skip[name] {
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
		if similarityNormalized(n1, n2) >= e.cfg.FuzzyThreshold {
			names = append(names, name)
		}
	}
	return names
}
