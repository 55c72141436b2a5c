// Package duplicate scores a candidate transaction against recent history
// to flag probable double entries. The signal is advisory only: it never
// blocks a write, callers decide what to surface.
package duplicate

import (
	"sort"
	"strings"
	"time"

	"bolsillo/internal/core"
)

const (
	// Score weights. A perfect match across all four signals is 100.
	amountWeight      = 40
	categoryWeight    = 20
	descriptionWeight = 20
	substringWeight   = 10
	dateWeight        = 20

	// Threshold below which a match is not worth reporting.
	minScore = 60

	// MaxMatches caps how many suspects are returned.
	MaxMatches = 3

	proximityWindow = 48 * time.Hour
)

// Reason tags attached to a match, one per signal that fired.
const (
	ReasonAmount      = "amount"
	ReasonCategory    = "category"
	ReasonDescription = "description"
	ReasonDate        = "date"
)

// Candidate is an unsaved transaction as entered by the user. Amount is the
// raw input string; both thousands/decimal separator conventions parse.
type Candidate struct {
	Kind        core.TransactionKind
	Amount      string
	Category    string
	Description string
	OccurredAt  time.Time
}

// Match is an existing transaction suspected to duplicate the candidate.
type Match struct {
	Transaction core.Transaction
	Score       int
	Reasons     []string
}

// Detect returns up to MaxMatches suspects with score >= 60, highest first.
//
// A candidate with neither description nor category is never scored: minimal
// entries would otherwise flood the caller with false positives. A
// non-positive or unparsable amount likewise yields no matches.
func Detect(candidate Candidate, history []core.Transaction) []Match {
	desc := strings.TrimSpace(candidate.Description)
	category := strings.TrimSpace(candidate.Category)
	if desc == "" && category == "" {
		return nil
	}
	amountCents, err := core.ParseAmountCents(candidate.Amount)
	if err != nil {
		return nil
	}

	var matches []Match
	for _, t := range history {
		if t.Kind != candidate.Kind {
			continue
		}
		score, reasons := scoreAgainst(candidate, amountCents, desc, category, t)
		if score < minScore {
			continue
		}
		matches = append(matches, Match{Transaction: t, Score: score, Reasons: reasons})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}

func scoreAgainst(c Candidate, amountCents int64, desc, category string, t core.Transaction) (int, []string) {
	score := 0
	var reasons []string

	if t.Amount.Cents == amountCents {
		score += amountWeight
		reasons = append(reasons, ReasonAmount)
	}

	if category != "" && t.Category != "" && strings.EqualFold(category, t.Category) {
		score += categoryWeight
		reasons = append(reasons, ReasonCategory)
	}

	existingDesc := strings.TrimSpace(t.Description)
	if desc != "" && existingDesc != "" {
		a, b := strings.ToLower(desc), strings.ToLower(existingDesc)
		switch {
		case a == b:
			score += descriptionWeight
			reasons = append(reasons, ReasonDescription)
		case strings.Contains(a, b) || strings.Contains(b, a):
			// Substring containment either direction, exclusive with
			// the exact-match bonus.
			score += substringWeight
			reasons = append(reasons, ReasonDescription)
		}
	}

	if !c.OccurredAt.IsZero() && !t.OccurredAt.IsZero() {
		diff := c.OccurredAt.Sub(t.OccurredAt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= proximityWindow {
			score += dateWeight
			reasons = append(reasons, ReasonDate)
		}
	}

	return score, reasons
}
