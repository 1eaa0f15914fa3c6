package agent

import (
	"strings"

	"github.com/creditdesk/creditdesk/internal/ledger"
)

// verdict is the parse of a confirmation reply.
type verdict int

const (
	verdictUnknown verdict = iota
	verdictAffirmative
	verdictNegative
)

var affirmatives = []string{"yes", "y", "confirm", "ok", "proceed", "correct"}
var negatives = []string{"no", "n", "cancel", "stop", "wrong"}

// parseConfirmation matches the reply against the fixed confirmation
// vocabularies. Anything else is unknown.
func parseConfirmation(reply string) verdict {
	word := strings.ToLower(strings.TrimSpace(reply))
	word = strings.TrimRight(word, ".!")
	for _, a := range affirmatives {
		if word == a {
			return verdictAffirmative
		}
	}
	for _, n := range negatives {
		if word == n {
			return verdictNegative
		}
	}
	return verdictUnknown
}

// matchCandidate interprets a clarification reply as a selection among the
// offered candidates, matching case-insensitively against id or name
// substrings. It returns nil unless exactly one candidate matches.
func matchCandidate(reply string, candidates []ledger.Customer) *ledger.Customer {
	needle := strings.ToLower(strings.TrimSpace(reply))
	if needle == "" {
		return nil
	}

	var matched []*ledger.Customer
	for i := range candidates {
		c := &candidates[i]
		id := strings.ToLower(c.ID)
		name := strings.ToLower(c.Name)
		if strings.Contains(id, needle) || strings.Contains(needle, id) ||
			strings.Contains(name, needle) || strings.Contains(needle, name) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 1 {
		return matched[0]
	}
	return nil
}

// isResetCommand recognizes the reserved session-clear command anywhere in
// the utterance, case-insensitive.
func isResetCommand(utterance string) bool {
	lower := strings.ToLower(utterance)
	return strings.Contains(lower, "reset session") || strings.Contains(lower, "clear session")
}
