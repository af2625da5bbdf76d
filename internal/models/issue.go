package models

import "strings"

// IssueStatus represents the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusProposed   IssueStatus = "Proposed"
	IssueStatusApproved   IssueStatus = "Approved"
	IssueStatusInProgress IssueStatus = "InProgress"
	IssueStatusCompleted  IssueStatus = "Completed"
	IssueStatusRejected   IssueStatus = "Rejected"
	IssueStatusDeleted    IssueStatus = "Deleted"
)

// IssueTag represents the category an issue is filed under.
type IssueTag string

const (
	IssueTagBug           IssueTag = "Bug"
	IssueTagFeature       IssueTag = "Feature"
	IssueTagEnhancement   IssueTag = "Enhancement"
	IssueTagQuestion      IssueTag = "Question"
	IssueTagDocumentation IssueTag = "Documentation"
)

var allStatuses = []IssueStatus{
	IssueStatusProposed,
	IssueStatusApproved,
	IssueStatusInProgress,
	IssueStatusCompleted,
	IssueStatusRejected,
	IssueStatusDeleted,
}

var allTags = []IssueTag{
	IssueTagBug,
	IssueTagFeature,
	IssueTagEnhancement,
	IssueTagQuestion,
	IssueTagDocumentation,
}

// AllIssueStatuses returns every known status in lifecycle order.
func AllIssueStatuses() []IssueStatus {
	out := make([]IssueStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// AllIssueTags returns every known tag.
func AllIssueTags() []IssueTag {
	out := make([]IssueTag, len(allTags))
	copy(out, allTags)
	return out
}

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether t is one of the known tags.
func (t IssueTag) Valid() bool {
	for _, v := range allTags {
		if t == v {
			return true
		}
	}
	return false
}

// ParseIssueStatus matches s case-insensitively against the known statuses.
// "in_progress" and "in-progress" are accepted for InProgress.
func ParseIssueStatus(s string) (IssueStatus, bool) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s))
	for _, v := range allStatuses {
		if strings.EqualFold(norm, string(v)) {
			return v, true
		}
	}
	return "", false
}

// ParseIssueTag matches s case-insensitively against the known tags.
func ParseIssueTag(s string) (IssueTag, bool) {
	s = strings.TrimSpace(s)
	for _, v := range allTags {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return "", false
}

// Issue is a single tracked issue. ID is the store-assigned row identifier;
// zero means the issue has not been persisted.
type Issue struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Detail    string      `json:"detail"`
	Tag       IssueTag    `json:"tag"`
	Status    IssueStatus `json:"status"`
	DiscordID string      `json:"discord_id"`
}
