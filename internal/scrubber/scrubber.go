// Package scrubber finds hardcoded user-facing strings in JSX/TSX sources,
// proposes translation keys for them and rewrites selected literals into
// translation lookups, snapshotting every touched file first.
package scrubber

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"textscrub/internal/logger"
)

var (
	ErrRootNotFound    = errors.New("project root not found")
	ErrPathOutsideRoot = errors.New("path escapes project root")
)

// FileSystem is the slice of file operations the scrubber needs. The default
// implementation talks to the OS; tests substitute failing writers.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// Options tunes discovery, backups and the code inserted on apply.
type Options struct {
	SourceDirs []string
	Extensions []string
	// BackupDir is relative to the project root unless absolute.
	BackupDir string
	// LocaleFile is the nested JSON catalog updated on apply, relative to the root.
	LocaleFile string
	ImportLine string
	HookLine   string

	FS     FileSystem
	Logger *slog.Logger
	Now    func() time.Time
}

// Scrubber scans and rewrites one project tree. It keeps no state between
// calls; a scan result can be applied by any Scrubber over the same root.
type Scrubber struct {
	root string
	opts Options
	fs   FileSystem
	log  *slog.Logger
	now  func() time.Time
}

// New returns a Scrubber rooted at root.
func New(root string, opts Options) (*Scrubber, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	if len(opts.SourceDirs) == 0 {
		opts.SourceDirs = []string{"src/app", "src/components"}
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".tsx", ".jsx"}
	}
	if opts.BackupDir == "" {
		opts.BackupDir = ".backups"
	}
	if opts.LocaleFile == "" {
		opts.LocaleFile = "src/lib/locales/en.json"
	}
	if opts.ImportLine == "" {
		opts.ImportLine = "import { useTranslationContext } from '@/components/providers/TranslationProvider';"
	}
	if opts.HookLine == "" {
		opts.HookLine = "  const { t } = useTranslationContext();"
	}

	s := &Scrubber{
		root: abs,
		opts: opts,
		fs:   opts.FS,
		log:  opts.Logger,
		now:  opts.Now,
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}

	st, err := s.fs.Stat(abs)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, abs)
	}
	return s, nil
}

// Root returns the absolute project root.
func (s *Scrubber) Root() string {
	return s.root
}

// resolve maps a slash-separated project-relative path to an absolute one,
// refusing anything that would land outside the root.
func (s *Scrubber) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathOutsideRoot)
	}
	native := filepath.FromSlash(rel)
	if filepath.IsAbs(native) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, rel)
	}
	full := filepath.Join(s.root, native)
	r, err := filepath.Rel(s.root, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, rel)
	}
	return full, nil
}

func (s *Scrubber) absOption(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, filepath.FromSlash(p))
}

// OSFileSystem is the FileSystem backed by the os package. WriteFile goes
// through a temp file and rename so readers never see a half-written file.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OSFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error { return filepath.WalkDir(root, fn) }

func (OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".scrub-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, name)
}
