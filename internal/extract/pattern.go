package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/glimpse-app/glimpse/pkg/models"
)

// patternConfidence is the fixed confidence assigned to pattern matches.
const patternConfidence = 0.7

// minMatchLength discards trivially short matches after trimming.
const minMatchLength = 10

type taskPattern struct {
	re          *regexp.Regexp
	hasAssignee bool
}

// taskPatterns match common action-item phrasings. The first capture group is
// the assignee where present, the last is the task text.
var taskPatterns = []taskPattern{
	{regexp.MustCompile(`(?i)(\w+)\s+will\s+(.+?)(?:\.|$)`), true},
	{regexp.MustCompile(`(?i)(\w+)\s+should\s+(.+?)(?:\.|$)`), true},
	{regexp.MustCompile(`(?i)(\w+)\s+needs?\s+to\s+(.+?)(?:\.|$)`), true},
	{regexp.MustCompile(`(?i)let['’]?s\s+(.+?)(?:\.|$)`), false},
	{regexp.MustCompile(`(?i)action\s+item:\s*(.+?)(?:\.|$)`), false},
	{regexp.MustCompile(`(?i)todo:\s*(.+?)(?:\.|$)`), false},
	{regexp.MustCompile(`(?i)task:\s*(.+?)(?:\.|$)`), false},
}

// controlPhrases are meeting-control utterances that pattern-match like
// tasks but carry no work; they belong to boundary detection instead.
var controlPhrases = map[string]bool{
	"get started": true,
	"get going":   true,
	"begin":       true,
	"start":       true,
	"wrap up":     true,
	"wrap it up":  true,
	"call it a day": true,
}

// ExtractPatterns is the pattern-matching fallback extractor used when no
// completion backend is wired. Matches shorter than 10 characters are
// discarded, as are meeting-control phrases; results are sorted
// lexicographically and deduplicated by exact case-insensitive text match.
func ExtractPatterns(transcript string, source models.ActionItemSource, sourceID string) []models.ActionItem {
	var items []models.ActionItem

	for _, p := range taskPatterns {
		for _, match := range p.re.FindAllStringSubmatch(transcript, -1) {
			text := strings.TrimSpace(match[len(match)-1])
			if len(text) <= minMatchLength {
				continue
			}
			if controlPhrases[strings.ToLower(text)] {
				continue
			}

			item := models.NewActionItem(text)
			item.Source = source
			if sourceID != "" {
				id := sourceID
				item.SourceID = &id
			}
			if p.hasAssignee {
				assignee := match[1]
				item.Assignee = &assignee
			}
			item.Confidence = patternConfidence
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Text < items[j].Text })

	// Exact case-insensitive dedup of adjacent entries.
	deduped := items[:0]
	for _, item := range items {
		if len(deduped) > 0 && strings.EqualFold(deduped[len(deduped)-1].Text, item.Text) {
			continue
		}
		deduped = append(deduped, item)
	}

	return deduped
}
