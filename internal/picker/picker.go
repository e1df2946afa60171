// Package picker selects a random entry from collected Notion pages whose
// status is in a whitelist.
package picker

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/Sternrassler/notion-picker/pkg/notion"
)

// ErrNoCandidates is returned by Pick when nothing is pickable.
var ErrNoCandidates = errors.New("no entries with a pickable status")

// Candidates returns the titles of pages that have a title and whose status
// property, compared case-insensitively, is one of statuses. Input order is
// preserved. statuses are expected in lower case.
func Candidates(pages []notion.Page, property string, statuses []string) []string {
	candidates := make([]string, 0, len(pages))
	for _, page := range pages {
		title, ok := page.Title()
		if !ok {
			continue
		}
		status, ok := page.Status(property)
		if !ok {
			continue
		}
		if slices.Contains(statuses, strings.ToLower(status)) {
			candidates = append(candidates, title)
		}
	}
	return candidates
}

// Pick returns one of candidates chosen uniformly by rng. A nil rng uses
// the package-level source.
func Pick(candidates []string, rng *rand.Rand) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	if rng == nil {
		return candidates[rand.IntN(len(candidates))], nil
	}
	return candidates[rng.IntN(len(candidates))], nil
}
