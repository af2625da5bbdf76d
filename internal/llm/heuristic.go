package llm

import (
	"strings"

	"github.com/zako-ac/issuetracker/internal/models"
)

// SuggestTagHeuristic infers a tag from the issue text using keyword matching.
// Bug keywords win over everything else; defaults to Feature.
func SuggestTagHeuristic(name, detail string) models.IssueTag {
	lower := strings.ToLower(name + "\n" + detail)

	bugWords := []string{
		"bug", "broken", "crash", "error", "not working", "doesn't work",
		"fail", "regression", "exception", "wrong",
	}
	for _, kw := range bugWords {
		if strings.Contains(lower, kw) {
			return models.IssueTagBug
		}
	}

	docWords := []string{"docs", "documentation", "readme", "typo", "help text", "wording"}
	for _, kw := range docWords {
		if strings.Contains(lower, kw) {
			return models.IssueTagDocumentation
		}
	}

	// A trailing question mark in the name is the strongest question signal.
	if strings.HasSuffix(strings.TrimSpace(name), "?") ||
		strings.HasPrefix(lower, "how ") || strings.HasPrefix(lower, "why ") {
		return models.IssueTagQuestion
	}

	enhanceWords := []string{"improve", "faster", "better", "cleanup", "clean up", "refactor", "optimize", "tweak"}
	for _, kw := range enhanceWords {
		if strings.Contains(lower, kw) {
			return models.IssueTagEnhancement
		}
	}

	return models.IssueTagFeature
}
