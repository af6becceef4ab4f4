package model

// ReplacementType classifies where a literal was found.
type ReplacementType string

const (
	ReplacementJSX       ReplacementType = "jsx"
	ReplacementAttribute ReplacementType = "attribute"
)

// Replacement is one proposed rewrite of a hardcoded literal into a
// translation lookup. It carries everything needed to re-apply it later
// without the scan that produced it.
type Replacement struct {
	ID           string          `json:"id" validate:"required"`
	Component    string          `json:"component"`
	FilePath     string          `json:"filePath" validate:"required"`
	Line         int             `json:"line" validate:"gte=1"`
	Text         string          `json:"text"`
	OriginalText string          `json:"originalText" validate:"required"`
	Replacement  string          `json:"replacement" validate:"required"`
	Key          string          `json:"key" validate:"required"`
	Type         ReplacementType `json:"type"`
	Context      string          `json:"context"`
	Selected     bool            `json:"selected"`
}

// ScanResult is the report produced by a read-only scan.
type ScanResult struct {
	ScanID             string        `json:"scanId,omitempty"`
	Replacements       []Replacement `json:"replacements"`
	TotalFound         int           `json:"totalFound"`
	ComponentsAffected int           `json:"componentsAffected"`
	FilesScanned       int           `json:"filesScanned"`
	FilesSkipped       int           `json:"filesSkipped"`
	SkippedFiles       []string      `json:"skippedFiles,omitempty"`
}

// ApplyResult is the outcome of an apply pass. Errors holds per-file and
// per-replacement failures; Success is true only when Errors is empty.
type ApplyResult struct {
	Success       bool     `json:"success"`
	BackupPath    string   `json:"backupPath,omitempty"`
	Errors        []string `json:"errors"`
	Applied       int      `json:"applied"`
	FilesModified []string `json:"filesModified"`
}
