package scrubber

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"textscrub/internal/model"
)

var keyRefPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])t\(\s*['"]([^'"]+)['"]`)

// Audit reports hardcoded strings, as Scan finds them, plus every t('key')
// reference whose key is absent from the locale catalog.
func (s *Scrubber) Audit(ctx context.Context) (*model.AuditReport, error) {
	scan, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	cat, _, err := s.LoadCatalog()
	if err != nil {
		return nil, err
	}

	report := &model.AuditReport{Issues: []model.AuditIssue{}}
	for _, r := range scan.Replacements {
		report.Issues = append(report.Issues, model.AuditIssue{
			Component:    r.Component,
			File:         r.FilePath,
			Line:         r.Line,
			Text:         r.Text,
			SuggestedKey: r.Key,
			Type:         model.IssueHardcoded,
		})
	}

	files, err := s.discover()
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("audit interrupted: %w", err)
		}
		content, err := s.readSource(rel)
		if err != nil {
			continue
		}
		component := ComponentName(rel)
		for i, line := range strings.Split(content, "\n") {
			for _, m := range keyRefPattern.FindAllStringSubmatch(line, -1) {
				if cat.Has(m[1]) {
					continue
				}
				report.Issues = append(report.Issues, model.AuditIssue{
					Component:    component,
					File:         rel,
					Line:         i + 1,
					Text:         m[1],
					SuggestedKey: m[1],
					Type:         model.IssueMissingTranslation,
				})
			}
		}
	}

	components := make(map[string]struct{})
	for _, is := range report.Issues {
		components[is.Component] = struct{}{}
	}
	report.TotalIssues = len(report.Issues)
	report.ComponentsWithIssue = len(components)
	return report, nil
}
