package model

// IssueType distinguishes audit findings.
type IssueType string

const (
	IssueHardcoded          IssueType = "hardcoded"
	IssueMissingTranslation IssueType = "missing-translation"
)

// AuditIssue is a single audit finding.
type AuditIssue struct {
	Component    string    `json:"component"`
	File         string    `json:"file"`
	Line         int       `json:"line"`
	Text         string    `json:"text"`
	SuggestedKey string    `json:"suggestedKey"`
	Type         IssueType `json:"type"`
}

// AuditReport summarizes hardcoded strings and keys missing from the catalog.
type AuditReport struct {
	Issues              []AuditIssue `json:"issues"`
	TotalIssues         int          `json:"totalIssues"`
	ComponentsWithIssue int          `json:"componentsWithIssues"`
}
