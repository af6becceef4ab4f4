package scrubber

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
)

// createBackup copies files into a fresh timestamped directory under the
// backup root, preserving their project-relative layout. It returns the
// directory and the files whose copy failed. Files that do not exist are not
// copied; the apply pass reports them.
func (s *Scrubber) createBackup(files []string) (string, map[string]error, error) {
	base := s.absOption(s.opts.BackupDir)
	name := fmt.Sprintf("scrubber-%d", s.now().UnixMilli())
	dir := filepath.Join(base, name)
	for i := 1; ; i++ {
		if _, err := s.fs.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dir = filepath.Join(base, name+"-"+strconv.Itoa(i))
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create backup directory: %w", err)
	}

	failed := make(map[string]error)
	for _, rel := range files {
		src, err := s.resolve(rel)
		if err != nil {
			failed[rel] = err
			continue
		}
		data, err := s.fs.ReadFile(src)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			failed[rel] = err
			continue
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			failed[rel] = err
			continue
		}
		if err := s.fs.WriteFile(dst, data, 0o644); err != nil {
			failed[rel] = err
		}
	}

	s.log.Info("backup_created", "path", dir, "files", len(files)-len(failed), "failed", len(failed))
	return dir, failed, nil
}

// BackupFile is one file inside a backup directory.
type BackupFile struct {
	// Path is relative to the backup directory, slash separated.
	Path string
	Data []byte
}

// ReadBackup returns the contents of a backup directory created by Apply,
// ordered by path.
func (s *Scrubber) ReadBackup(dir string) ([]BackupFile, error) {
	base := s.absOption(s.opts.BackupDir)
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%w: %s", ErrPathOutsideRoot, dir)
	}

	var out []BackupFile
	err = s.fs.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		data, err := s.fs.ReadFile(p)
		if err != nil {
			return err
		}
		r, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, BackupFile{Path: filepath.ToSlash(r), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", dir, err)
	}
	return out, nil
}
