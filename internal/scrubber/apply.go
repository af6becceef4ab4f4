package scrubber

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"textscrub/internal/model"
)

var (
	hookPattern      = regexp.MustCompile(`const\s*\{\s*t\b[^}]*\}\s*=`)
	componentPattern = regexp.MustCompile(`^\s*(export\s+(default\s+)?)?(async\s+)?(function\s+[A-Z]\w*|const\s+[A-Z]\w*\s*=)`)
	defaultExport    = regexp.MustCompile(`^\s*export\s+default\s`)
	importEndPattern = regexp.MustCompile(`(from\s*['"][^'"]+['"]|^\s*import\s*['"][^'"]+['"])\s*;?\s*$`)
	bodyOpenPattern  = regexp.MustCompile(`(\)|=>)\s*\{\s*$`)
	directivePattern = regexp.MustCompile(`^\s*['"]use (client|server)['"];?\s*$`)
)

// Apply rewrites the replacements named by selectedIDs. records is the
// scan output the IDs refer to; it may come from a stored session or from
// the caller. Files are processed in the order their first selected ID
// appears. When createBackup is set, every file about to change is copied
// before the first write. Failures local to one file are collected in
// ApplyResult.Errors and the remaining files are still processed.
func (s *Scrubber) Apply(ctx context.Context, records []model.Replacement, selectedIDs []string, createBackup bool) (*model.ApplyResult, error) {
	res := &model.ApplyResult{Errors: []string{}, FilesModified: []string{}}

	byID := make(map[string]model.Replacement, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	var order []string
	groups := make(map[string][]model.Replacement)
	picked := make(map[string]bool)
	for _, id := range selectedIDs {
		if picked[id] {
			continue
		}
		picked[id] = true
		r, ok := byID[id]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("unknown replacement id %q", id))
			continue
		}
		if _, err := s.resolve(r.FilePath); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Error in %s: %v", r.FilePath, err))
			continue
		}
		if _, ok := groups[r.FilePath]; !ok {
			order = append(order, r.FilePath)
		}
		groups[r.FilePath] = append(groups[r.FilePath], r)
	}

	if len(order) == 0 {
		res.Success = len(res.Errors) == 0
		return res, nil
	}

	var backupFailed map[string]error
	if createBackup {
		dir, failed, err := s.createBackup(order)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			res.Success = false
			return res, nil
		}
		res.BackupPath = dir
		backupFailed = failed
	}

	var applied []model.Replacement
	for _, rel := range order {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Error in %s: %v", rel, err))
			continue
		}
		if err, ok := backupFailed[rel]; ok {
			res.Errors = append(res.Errors, fmt.Sprintf("Error in %s: backup failed, file left untouched: %v", rel, err))
			continue
		}

		done, stale, changed, err := s.applyToFile(rel, groups[rel])
		res.Errors = append(res.Errors, stale...)
		if err != nil {
			s.log.Warn("apply_file_failed", "file", rel, "error", err.Error())
			res.Errors = append(res.Errors, fmt.Sprintf("Error in %s: %v", rel, err))
			continue
		}
		if changed {
			res.FilesModified = append(res.FilesModified, rel)
		}
		applied = append(applied, done...)
	}
	res.Applied = len(applied)

	if len(applied) > 0 {
		if err := s.updateCatalog(applied); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Error updating translation files: %v", err))
		}
	}

	res.Success = len(res.Errors) == 0
	s.log.Info("apply_completed",
		"root", s.root,
		"applied", res.Applied,
		"files_modified", len(res.FilesModified),
		"errors", len(res.Errors),
		"backup_path", res.BackupPath,
	)
	return res, nil
}

// applyToFile rewrites one file. Replacements whose text can no longer be
// found are reported in stale without failing the file.
func (s *Scrubber) applyToFile(rel string, recs []model.Replacement) (done []model.Replacement, stale []string, changed bool, err error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, nil, false, err
	}
	info, err := s.fs.Stat(full)
	if err != nil {
		return nil, nil, false, err
	}
	data, err := s.fs.ReadFile(full)
	if err != nil {
		return nil, nil, false, err
	}
	content := string(data)
	lines := strings.Split(content, "\n")

	sorted := make([]model.Replacement, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line > sorted[j].Line })

	for _, r := range sorted {
		idx := r.Line - 1
		if idx < 0 || idx >= len(lines) {
			stale = append(stale, fmt.Sprintf("%s:%d: line out of range", rel, r.Line))
			continue
		}
		next, ok := replaceInLine(lines[idx], r)
		if !ok {
			stale = append(stale, fmt.Sprintf("%s:%d: original text not found", rel, r.Line))
			continue
		}
		lines[idx] = next
		done = append(done, r)
	}
	if len(done) == 0 {
		return nil, stale, false, nil
	}

	lines = s.ensureTranslationHook(content, lines)

	out := strings.Join(lines, "\n")
	if out == content {
		return done, stale, false, nil
	}
	if err := s.fs.WriteFile(full, []byte(out), info.Mode().Perm()); err != nil {
		return nil, stale, false, err
	}
	return done, stale, true, nil
}

// replaceInLine swaps the first occurrence of the replacement's original
// text on line. Bare JSX text never matches inside a heading or button,
// which the scanner reports as separate records.
func replaceInLine(line string, r model.Replacement) (string, bool) {
	if r.OriginalText == "" {
		return line, false
	}
	if r.Type == model.ReplacementJSX && !isWholeTag(r.OriginalText) {
		re, err := regexp.Compile(`>(\s*)` + regexp.QuoteMeta(r.OriginalText) + `(\s*)<`)
		if err != nil {
			return line, false
		}
		claimed := tagSpans(line)
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			if isClaimed(claimed, m[0], m[1]) {
				continue
			}
			repl := ">" + line[m[2]:m[3]] + r.Replacement + line[m[4]:m[5]] + "<"
			return line[:m[0]] + repl + line[m[1]:], true
		}
		return line, false
	}
	if !strings.Contains(line, r.OriginalText) {
		return line, false
	}
	return strings.Replace(line, r.OriginalText, r.Replacement, 1), true
}

func isWholeTag(s string) bool {
	return strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

// ensureTranslationHook adds the translation import and hook when the
// original content has neither.
func (s *Scrubber) ensureTranslationHook(original string, lines []string) []string {
	needImport := !strings.Contains(original, "useTranslation")
	needHook := !hookPattern.MatchString(original)

	if needImport {
		at := lastImportIndex(lines) + 1
		if at == 0 {
			at = leadingDirectiveEnd(lines)
		}
		lines = insertLine(lines, at, s.opts.ImportLine)
	}
	if needHook {
		if at := componentBodyStart(lines); at >= 0 {
			lines = insertLine(lines, at, s.opts.HookLine)
		}
	}
	return lines
}

// lastImportIndex returns the line that ends the last import statement of
// the leading import block, following multi-line imports to their closing
// from clause.
func lastImportIndex(lines []string) int {
	last := -1
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "import{") {
			if last >= 0 && trimmed == "" {
				break
			}
			continue
		}
		end := i
		for end < len(lines) && !importEnds(lines[end]) {
			end++
		}
		if end == len(lines) {
			return last
		}
		last = end
		i = end
	}
	return last
}

func importEnds(line string) bool {
	return importEndPattern.MatchString(line) || strings.HasSuffix(strings.TrimSpace(line), ";")
}

func leadingDirectiveEnd(lines []string) int {
	for i, l := range lines {
		if directivePattern.MatchString(l) {
			return i + 1
		}
		if strings.TrimSpace(l) != "" {
			return 0
		}
	}
	return 0
}

// componentBodyStart finds the line after the opening brace of the default
// exported component, or of the first capitalized component when nothing is
// exported by default. It looks at most five lines past the declaration. A
// line ending in ") {" or "=> {" wins over an earlier destructuring brace.
func componentBodyStart(lines []string) int {
	decl := -1
	for i, l := range lines {
		if !componentPattern.MatchString(l) {
			continue
		}
		if defaultExport.MatchString(l) {
			decl = i
			break
		}
		if decl < 0 {
			decl = i
		}
	}
	if decl < 0 {
		return -1
	}
	first := -1
	for j := decl; j < len(lines) && j < decl+5; j++ {
		if bodyOpenPattern.MatchString(lines[j]) {
			return j + 1
		}
		if first < 0 && strings.Contains(lines[j], "{") {
			first = j + 1
		}
	}
	return first
}

func insertLine(lines []string, at int, line string) []string {
	if at < 0 || at > len(lines) {
		at = len(lines)
	}
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = line
	return lines
}
