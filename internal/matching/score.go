// Package matching scores lost reports against found items.
//
// Scoring is deterministic and explainable: the same pair of inputs always
// produces the same score and the same ordered reasons. There is no I/O and
// no randomness, so results can be cached as match suggestions and replayed
// in audit trails.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Weights control the contribution of each scoring component.
// The defaults are empirical; they are configuration, not law.
type Weights struct {
	Category    float64 // added when category ids match
	Location    float64 // added when location ids match
	DateWithin1 float64 // date gap of at most 1 day
	DateWithin3 float64 // date gap of at most 3 days
	DateWithin7 float64 // date gap of at most 7 days
	KeywordMax  float64 // cap for the keyword overlap component
	KeywordGain float64 // overlap ratio multiplier before capping
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Category:    40,
		Location:    25,
		DateWithin1: 15,
		DateWithin3: 10,
		DateWithin7: 5,
		KeywordMax:  20,
		KeywordGain: 28,
	}
}

// Input is the common shape both sides of a comparison are reduced to.
type Input struct {
	ItemName    string
	Description string
	CategoryID  int64
	LocationID  int64
	Date        time.Time // date lost or date found
}

// Result is a bounded score with its explanation.
type Result struct {
	Score   float64  // 0..100, two-decimal precision
	Reasons []string // ordered by contribution, at most maxReasons
}

// maxReasons bounds the explanation length for UI and audit entries.
const maxReasons = 3

// minTokenLen drops very short tokens before overlap comparison.
const minTokenLen = 3

// stopwords are common words that carry no matching signal.
var stopwords = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "was": true,
	"has": true, "had": true, "its": true, "from": true, "this": true,
	"that": true, "near": true, "lost": true, "found": true,
}

// Score compares a lost report against a found item using the default
// weights.
func Score(lost, found Input) Result {
	return ScoreWith(DefaultWeights(), lost, found)
}

// ScoreWith compares a lost report against a found item.
func ScoreWith(w Weights, lost, found Input) Result {
	type component struct {
		weight float64
		reason string
	}
	var parts []component

	// Category and location only match on real (non-zero) ids.
	if lost.CategoryID != 0 && lost.CategoryID == found.CategoryID {
		parts = append(parts, component{w.Category, "Same category"})
	}
	if lost.LocationID != 0 && lost.LocationID == found.LocationID {
		parts = append(parts, component{w.Location, "Same location"})
	}

	if !lost.Date.IsZero() && !found.Date.IsZero() {
		switch d := daysBetween(lost.Date, found.Date); {
		case d <= 1:
			parts = append(parts, component{w.DateWithin1, "Date is within 1 day"})
		case d <= 3:
			parts = append(parts, component{w.DateWithin3, "Date is within 3 days"})
		case d <= 7:
			parts = append(parts, component{w.DateWithin7, "Date is within 7 days"})
		}
	}

	lostTokens := tokenize(lost.ItemName + " " + lost.Description)
	foundTokens := tokenize(found.ItemName + " " + found.Description)
	if shared := intersect(lostTokens, foundTokens); len(shared) > 0 {
		ratio := float64(len(shared)) / float64(len(lostTokens))
		kw := math.Round(math.Min(w.KeywordMax, ratio*w.KeywordGain))
		if kw > 0 {
			parts = append(parts, component{kw, keywordReason(shared)})
		}
	}

	var total float64
	for _, p := range parts {
		total += p.weight
	}
	total = math.Max(0, math.Min(100, total))

	// Highest contribution first; equal weights keep insertion order.
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].weight > parts[j].weight })
	if len(parts) > maxReasons {
		parts = parts[:maxReasons]
	}

	reasons := make([]string, 0, len(parts))
	for _, p := range parts {
		reasons = append(reasons, p.reason)
	}

	return Result{Score: round2(total), Reasons: reasons}
}

// daysBetween returns the absolute gap in UTC calendar days. Comparing
// calendar days (not 24h periods) avoids off-by-one drift around midnight.
func daysBetween(a, b time.Time) int {
	au := a.UTC()
	bu := b.UTC()
	ad := time.Date(au.Year(), au.Month(), au.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(bu.Year(), bu.Month(), bu.Day(), 0, 0, 0, 0, time.UTC)
	d := int(ad.Sub(bd).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

// tokenize lowercases, splits on non-alphanumeric runes and drops stopwords
// and short tokens. The result is de-duplicated, preserving first occurrence
// order so downstream output is stable.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		if len(f) < minTokenLen || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// intersect returns the tokens of a that also occur in b, in a's order.
func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	var shared []string
	for _, t := range a {
		if inB[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

// keywordReason formats the shared-keyword explanation, naming at most the
// first three tokens.
func keywordReason(shared []string) string {
	sample := shared
	if len(sample) > 3 {
		sample = sample[:3]
	}
	return fmt.Sprintf("%d shared keyword(s): %s", len(shared), strings.Join(sample, ", "))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
