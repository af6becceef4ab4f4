package scrubber

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"textscrub/internal/model"
)

var ignoredDirs = map[string]bool{
	"node_modules": true,
	".next":        true,
	"dist":         true,
	"build":        true,
	".git":         true,
}

// Scan walks the configured source directories and reports every hardcoded
// literal it can rewrite. It only reads files. Unreadable or non-text files
// are skipped and counted in FilesSkipped.
func (s *Scrubber) Scan(ctx context.Context) (*model.ScanResult, error) {
	files, err := s.discover()
	if err != nil {
		return nil, err
	}

	res := &model.ScanResult{Replacements: []model.Replacement{}}
	keys := newKeyGenerator()

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted: %w", err)
		}
		content, err := s.readSource(rel)
		if err != nil {
			s.log.Warn("scan_file_skipped", "file", rel, "error", err.Error())
			res.FilesSkipped++
			res.SkippedFiles = append(res.SkippedFiles, rel)
			continue
		}
		res.FilesScanned++
		res.Replacements = s.scanContent(rel, content, keys, res.Replacements)
	}

	components := make(map[string]struct{})
	for _, r := range res.Replacements {
		components[r.Component] = struct{}{}
	}
	res.TotalFound = len(res.Replacements)
	res.ComponentsAffected = len(components)

	s.log.Info("scan_completed",
		"root", s.root,
		"files_scanned", res.FilesScanned,
		"files_skipped", res.FilesSkipped,
		"total_found", res.TotalFound,
	)
	return res, nil
}

func (s *Scrubber) scanContent(rel, content string, keys *keyGenerator, acc []model.Replacement) []model.Replacement {
	component := ComponentName(rel)
	for i, line := range strings.Split(content, "\n") {
		for _, c := range extractLine(line) {
			key := keys.next(component, c.kind, c.text)
			acc = append(acc, model.Replacement{
				ID:           fmt.Sprintf("%s-%d-%d", rel, i+1, len(acc)),
				Component:    component,
				FilePath:     rel,
				Line:         i + 1,
				Text:         c.text,
				OriginalText: c.original,
				Replacement:  c.replacement(key),
				Key:          key,
				Type:         c.typ,
				Context:      strings.TrimSpace(line),
				Selected:     true,
			})
		}
	}
	return acc
}

func (s *Scrubber) readSource(rel string) (string, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := s.fs.ReadFile(full)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("not a UTF-8 text file")
	}
	return string(data), nil
}

// discover lists candidate source files relative to the root, slash
// separated, in lexical walk order without duplicates.
func (s *Scrubber) discover() ([]string, error) {
	backupAbs := s.absOption(s.opts.BackupDir)
	seen := make(map[string]bool)
	var files []string

	for _, dir := range s.opts.SourceDirs {
		start, err := s.resolve(filepath.ToSlash(dir))
		if err != nil {
			return nil, err
		}
		st, err := s.fs.Stat(start)
		if err != nil || !st.IsDir() {
			continue
		}

		err = s.fs.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				s.log.Warn("scan_walk_error", "path", p, "error", err.Error())
				if d != nil && d.IsDir() && p != start {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if p != start && (ignoredDirs[d.Name()] || p == backupAbs) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !s.wantFile(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(s.root, p)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if !seen[rel] {
				seen[rel] = true
				files = append(files, rel)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	return files, nil
}

func (s *Scrubber) wantFile(name string) bool {
	if strings.Contains(name, ".test.") || strings.Contains(name, ".spec.") {
		return false
	}
	ext := filepath.Ext(name)
	for _, e := range s.opts.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
