// Package rank scores documents for a query using section-weighted BM25
// with a positional proximity boost.
package rank

import (
	"math"
	"sort"

	"github.com/mnohosten/paperfind/pkg/barrel"
)

// BM25 and proximity constants.
const (
	K1 = 1.5
	B  = 0.8

	TitleWeight    = 1.1
	AbstractWeight = 0.2
	KeywordsWeight = 0.25

	ProximityBoost      = 2.0
	TitleProximityBoost = 3.0
	SafeDistanceBase    = 5
	MaxSafeDistance     = 20

	// titleRegion approximates the title: positions below it are treated
	// as title positions during the proximity pass.
	titleRegion = 100
)

// TermResolver resolves a surface token to its term ID.
type TermResolver interface {
	GetID(token string) (int, bool)
}

// PostingSource fetches the posting list for a term ID.
type PostingSource interface {
	PostingsFor(termID int) ([]*barrel.Posting, error)
}

// Result is one scored document.
type Result struct {
	DocID string
	Score float64
}

// Ranker scores documents against the current index state. It holds no
// global state; the engine constructs one per snapshot of N and the
// average document length.
type Ranker struct {
	terms        TermResolver
	postings     PostingSource
	totalDocs    int
	avgDocLength float64
}

// New creates a ranker over the given index state.
func New(terms TermResolver, postings PostingSource, totalDocs int, avgDocLength float64) *Ranker {
	if avgDocLength <= 0 {
		avgDocLength = 1
	}
	return &Ranker{
		terms:        terms,
		postings:     postings,
		totalDocs:    totalDocs,
		avgDocLength: avgDocLength,
	}
}

// Rank scores every document containing at least one query term and
// returns them ordered by descending score, ties broken by ascending
// doc ID. Unknown terms are skipped silently.
func (r *Ranker) Rank(queryTerms []string) ([]Result, error) {
	scores := make(map[string]float64)
	docLengths := make(map[string]float64)
	// doc ID -> query term -> positions, for the proximity pass
	termPositions := make(map[string]map[string][]int)

	n := float64(r.totalDocs)

	for _, term := range queryTerms {
		termID, ok := r.terms.GetID(term)
		if !ok {
			continue
		}

		postings, err := r.postings.PostingsFor(termID)
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			continue
		}

		df := float64(len(postings))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)

		for _, p := range postings {
			if termPositions[p.DocID] == nil {
				termPositions[p.DocID] = make(map[string][]int)
			}
			termPositions[p.DocID][term] = p.Positions

			docLength := float64(p.Length)
			if docLength <= 0 {
				docLength = r.avgDocLength
			}
			docLengths[p.DocID] = docLength

			f := float64(p.Frequency[0])*TitleWeight +
				float64(p.Frequency[1])*AbstractWeight +
				float64(p.Frequency[2])*KeywordsWeight

			numerator := f * (K1 + 1)
			denominator := f + K1*(1-B+B*(docLength/r.avgDocLength))
			scores[p.DocID] += idf * (numerator / denominator)
		}
	}

	if len(queryTerms) >= 2 {
		r.applyProximityBoost(queryTerms, scores, docLengths, termPositions)
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		results = append(results, Result{DocID: docID, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	return results, nil
}

// applyProximityBoost multiplies each document's score by 1 + boost,
// where boost accumulates over all query term pairs that appear close
// together. Pairs inside the title region earn an extra weight.
func (r *Ranker) applyProximityBoost(queryTerms []string, scores map[string]float64, docLengths map[string]float64, termPositions map[string]map[string][]int) {
	for docID := range scores {
		positions := termPositions[docID]

		safe := SafeDistanceBase + int(docLengths[docID])/1000
		if safe > MaxSafeDistance {
			safe = MaxSafeDistance
		}

		boost := 0.0
		for i := 0; i < len(queryTerms); i++ {
			for j := i + 1; j < len(queryTerms); j++ {
				posI, okI := positions[queryTerms[i]]
				posJ, okJ := positions[queryTerms[j]]
				if !okI || !okJ {
					continue
				}

				boost += pairProximity(posI, posJ, safe) * ProximityBoost

				titleI := titlePositions(posI)
				titleJ := titlePositions(posJ)
				if len(titleI) > 0 && len(titleJ) > 0 {
					boost += pairProximity(titleI, titleJ, safe) * TitleProximityBoost
				}
			}
		}

		if boost > 0 {
			scores[docID] *= 1 + boost
		}
	}
}

// pairProximity maps the minimum distance between two position lists to
// [0, 1]: 1 at distance zero, falling linearly to 0 at the safe
// distance, and 0 beyond it.
func pairProximity(a, b []int, safe int) float64 {
	minDist := math.MaxInt
	for _, pa := range a {
		for _, pb := range b {
			d := pa - pb
			if d < 0 {
				d = -d
			}
			if d < minDist {
				minDist = d
			}
		}
	}

	if minDist > safe {
		return 0
	}
	return 1 - float64(minDist)/float64(safe)
}

// titlePositions filters a position list down to the title region.
func titlePositions(positions []int) []int {
	var out []int
	for _, p := range positions {
		if p < titleRegion {
			out = append(out, p)
		}
	}
	return out
}
