package scrubber

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textscrub/internal/model"
)

const homePage = `export default function HomePage() {
  return (
    <div>
      <h1>Welcome Home</h1>
      <input placeholder="Search items" />
    </div>
  );
}
`

const homePageApplied = `import { useTranslationContext } from '@/components/providers/TranslationProvider';
export default function HomePage() {
  const { t } = useTranslationContext();
  return (
    <div>
      <h1>{t('page.heading.welcomehome')}</h1>
      <input placeholder={t('page.placeholder.searchitems')} />
    </div>
  );
}
`

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newTestScrubber(t *testing.T, root string, fsys FileSystem) *Scrubber {
	t.Helper()
	s, err := New(root, Options{FS: fsys, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return s
}

func ids(recs []model.Replacement) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

// failingFS fails writes to one path and behaves like the OS otherwise.
type failingFS struct {
	OSFileSystem
	failOn string
}

func (f failingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if name == f.failOn {
		return errors.New("disk full")
	}
	return f.OSFileSystem.WriteFile(name, data, perm)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestScan_Report(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/page.tsx", homePage)

	s := newTestScrubber(t, root, nil)
	res, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Replacements, 2)
	assert.Equal(t, 2, res.TotalFound)
	assert.Equal(t, 1, res.ComponentsAffected)
	assert.Equal(t, 1, res.FilesScanned)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "backupCreated")

	h := res.Replacements[0]
	assert.Equal(t, "src/app/page.tsx-4-0", h.ID)
	assert.Equal(t, "page", h.Component)
	assert.Equal(t, "src/app/page.tsx", h.FilePath)
	assert.Equal(t, 4, h.Line)
	assert.Equal(t, "Welcome Home", h.Text)
	assert.Equal(t, "page.heading.welcomehome", h.Key)
	assert.Equal(t, "<h1>{t('page.heading.welcomehome')}</h1>", h.Replacement)
	assert.Equal(t, model.ReplacementJSX, h.Type)
	assert.Equal(t, "<h1>Welcome Home</h1>", h.Context)
	assert.True(t, h.Selected)

	p := res.Replacements[1]
	assert.Equal(t, "src/app/page.tsx-5-1", p.ID)
	assert.Equal(t, "page.placeholder.searchitems", p.Key)
	assert.Equal(t, model.ReplacementAttribute, p.Type)
}

func TestScan_Discovery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/page.tsx", homePage)
	writeFile(t, root, "src/components/Card.jsx", "<p>Card body text</p>\n")
	writeFile(t, root, "src/components/Card.test.tsx", "<p>Test copy</p>\n")
	writeFile(t, root, "src/components/util.ts", "<p>Not a component</p>\n")
	writeFile(t, root, "src/app/node_modules/lib/x.tsx", "<p>Vendored</p>\n")
	writeFile(t, root, "src/app/blob.tsx", "<p>Binary\x00</p>\n")

	s := newTestScrubber(t, root, nil)
	res, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.FilesScanned)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, []string{"src/app/blob.tsx"}, res.SkippedFiles)
	assert.Equal(t, 3, res.TotalFound)
	assert.Equal(t, 2, res.ComponentsAffected)
	for _, r := range res.Replacements {
		assert.NotContains(t, r.FilePath, "node_modules")
	}
}

func TestScan_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/page.tsx", homePage)
	writeFile(t, root, "src/components/Nav.tsx", "<button>Save</button>\n<button>Save</button>\n")

	s := newTestScrubber(t, root, nil)
	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	keys := []string{}
	for _, r := range first.Replacements {
		if r.Component == "Nav" {
			keys = append(keys, r.Key)
		}
	}
	assert.Equal(t, []string{"nav.button.save", "nav.button.save1"}, keys)
}

func TestScan_ReadOnly(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/app/page.tsx", homePage)
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	s := newTestScrubber(t, root, nil)
	_, err := s.Scan(context.Background())
	require.NoError(t, err)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, st.ModTime().Equal(old))
	assert.Equal(t, homePage, readFile(t, path))
	_, err = os.Stat(filepath.Join(root, ".backups"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/page.tsx", homePage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScrubber(t, root, nil).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApply_RoundTrip(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/app/page.tsx", homePage)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)

	// Records survive a trip through the wire format unchanged.
	raw, err := json.Marshal(scan.Replacements)
	require.NoError(t, err)
	var records []model.Replacement
	require.NoError(t, json.Unmarshal(raw, &records))

	res, err := s.Apply(context.Background(), records, ids(records), true)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, []string{"src/app/page.tsx"}, res.FilesModified)
	assert.Equal(t, homePageApplied, readFile(t, path))

	wantBackup := filepath.Join(root, ".backups", "scrubber-1772359200000")
	assert.Equal(t, wantBackup, res.BackupPath)
	assert.Equal(t, homePage, readFile(t, filepath.Join(wantBackup, "src", "app", "page.tsx")))

	again, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.TotalFound)
}

func TestApply_SelectedSubsetWithoutBackup(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/app/page.tsx", homePage)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)

	res, err := s.Apply(context.Background(), scan.Replacements, []string{scan.Replacements[1].ID, scan.Replacements[1].ID}, false)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Applied)
	assert.Empty(t, res.BackupPath)
	out := readFile(t, path)
	assert.Contains(t, out, "<h1>Welcome Home</h1>")
	assert.Contains(t, out, "placeholder={t('page.placeholder.searchitems')}")
	_, err = os.Stat(filepath.Join(root, ".backups"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestApply_ExistingHookNotDuplicated(t *testing.T) {
	root := t.TempDir()
	src := `'use client';
import { useTranslationContext } from '@/components/providers/TranslationProvider';

export function Toolbar() {
  const { t } = useTranslationContext();
  return <button>Refresh list</button>;
}
`
	path := writeFile(t, root, "src/components/Toolbar.tsx", src)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, scan.Replacements, 1)

	res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
	require.NoError(t, err)
	assert.True(t, res.Success)

	want := strings.Replace(src, "<button>Refresh list</button>", "<button>{t('toolbar.button.refreshlist')}</button>", 1)
	assert.Equal(t, want, readFile(t, path))
}

func TestApply_ImportAfterDirective(t *testing.T) {
	root := t.TempDir()
	src := "'use client';\n\nexport const Banner = () => {\n  return <p>Limited offer</p>;\n};\n"
	path := writeFile(t, root, "src/components/Banner.tsx", src)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)
	_, err = s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
	require.NoError(t, err)

	want := "'use client';\n" +
		"import { useTranslationContext } from '@/components/providers/TranslationProvider';\n" +
		"\n" +
		"export const Banner = () => {\n" +
		"  const { t } = useTranslationContext();\n" +
		"  return <p>{t('banner.text.limitedoffer')}</p>;\n" +
		"};\n"
	assert.Equal(t, want, readFile(t, path))
}

func TestApply_ImportAfterMultiLineImport(t *testing.T) {
	root := t.TempDir()
	src := `import {
  Card,
  CardHeader,
} from '@/components/ui/card';

export default function Dashboard() {
  return <Card><p>Monthly totals</p></Card>;
}
`
	path := writeFile(t, root, "src/app/Dashboard.tsx", src)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, scan.Replacements, 1)

	res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
	require.NoError(t, err)
	assert.True(t, res.Success)

	want := `import {
  Card,
  CardHeader,
} from '@/components/ui/card';
import { useTranslationContext } from '@/components/providers/TranslationProvider';

export default function Dashboard() {
  const { t } = useTranslationContext();
  return <Card><p>{t('dashboard.text.monthlytotals')}</p></Card>;
}
`
	assert.Equal(t, want, readFile(t, path))
}

func TestLastImportIndex(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"none", "export const A = 1;", -1},
		{"single lines without semicolons", "import React from 'react'\nimport './page.css'\n\nconst x = 1;", 1},
		{"multi-line import", "import {\n  A,\n  B,\n} from './ab';\nimport C from './c';\n\nfunction X() {}", 4},
		{"stops at the first blank line", "import A from './a';\n\nimport B from './b';", 0},
		{"unterminated import", "import {\n  A,", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastImportIndex(strings.Split(tt.src, "\n")))
		})
	}
}

func TestApply_HookGoesIntoComponentNotHelper(t *testing.T) {
	t.Run("default export after helper", func(t *testing.T) {
		root := t.TempDir()
		src := `function formatDate(d: Date) {
  return d.toISOString();
}

export default function ReportsPage() {
  return <h2>Monthly Reports</h2>;
}
`
		path := writeFile(t, root, "src/app/reports/page.tsx", src)
		s := newTestScrubber(t, root, nil)

		scan, err := s.Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, scan.Replacements, 1)

		res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
		require.NoError(t, err)
		assert.True(t, res.Success)

		want := `import { useTranslationContext } from '@/components/providers/TranslationProvider';
function formatDate(d: Date) {
  return d.toISOString();
}

export default function ReportsPage() {
  const { t } = useTranslationContext();
  return <h2>{t('page.heading.monthlyreports')}</h2>;
}
`
		assert.Equal(t, want, readFile(t, path))
	})

	t.Run("lowercase helpers are not components", func(t *testing.T) {
		root := t.TempDir()
		src := `const label = (n: number) => {
  return n;
};
function sortRows(rows: number[]) {
  return rows;
}
export function Summary() {
  return <p>No rows yet</p>;
}
`
		path := writeFile(t, root, "src/components/Summary.tsx", src)
		s := newTestScrubber(t, root, nil)

		scan, err := s.Scan(context.Background())
		require.NoError(t, err)
		_, err = s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
		require.NoError(t, err)

		out := readFile(t, path)
		assert.Equal(t, 1, strings.Count(out, "const { t } = useTranslationContext();"))
		assert.Contains(t, out, "export function Summary() {\n  const { t } = useTranslationContext();\n  return <p>{t('summary.text.norowsyet')}</p>;")
	})
}

func TestApply_BareTextSkipsButtonWithSameText(t *testing.T) {
	root := t.TempDir()
	src := "export function Form() {\n  return <div><button>Save</button><p>Save</p></div>;\n}\n"
	path := writeFile(t, root, "src/components/Form.tsx", src)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)

	var textID string
	for _, r := range scan.Replacements {
		if r.Key == "form.text.save" {
			textID = r.ID
		}
	}
	require.NotEmpty(t, textID)

	res, err := s.Apply(context.Background(), scan.Replacements, []string{textID}, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, readFile(t, path), "<button>Save</button><p>{t('form.text.save')}</p>")
}

func TestApply_PartialFailure(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "src/app/a.tsx", "<p>First file copy</p>\n")
	b := writeFile(t, root, "src/app/b.tsx", "<p>Second file copy</p>\n")
	s := newTestScrubber(t, root, failingFS{failOn: a})

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, scan.Replacements, 2)

	res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), true)
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Error in src/app/a.tsx")
	assert.Contains(t, res.Errors[0], "disk full")
	assert.Equal(t, []string{"src/app/b.tsx"}, res.FilesModified)
	assert.Equal(t, 1, res.Applied)

	assert.Equal(t, "<p>First file copy</p>\n", readFile(t, a))
	assert.Contains(t, readFile(t, b), "{t('b.text.secondfilecopy')}")
	assert.Equal(t, "<p>First file copy</p>\n", readFile(t, filepath.Join(res.BackupPath, "src", "app", "a.tsx")))
}

func TestApply_InvalidSelections(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/app/page.tsx", homePage)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)

	records := append([]model.Replacement{}, scan.Replacements...)
	records = append(records, model.Replacement{
		ID:           "escape",
		FilePath:     "../outside.tsx",
		Line:         1,
		OriginalText: "x",
		Replacement:  "y",
	})

	res, err := s.Apply(context.Background(), records, []string{"missing", "escape"}, true)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], `"missing"`)
	assert.Contains(t, res.Errors[1], "Error in ../outside.tsx")
	assert.Empty(t, res.BackupPath)
	assert.Equal(t, homePage, readFile(t, path))
}

func TestApply_StaleReplacement(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/app/page.tsx", homePage)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)

	edited := strings.Replace(homePage, "Welcome Home", "Welcome Back", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"src/app/page.tsx:4: original text not found"}, res.Errors)
	assert.Equal(t, 1, res.Applied)
	out := readFile(t, path)
	assert.Contains(t, out, "<h1>Welcome Back</h1>")
	assert.Contains(t, out, "placeholder={t('page.placeholder.searchitems')}")
}

func TestApply_UpdatesCatalog(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/page.tsx", homePage)
	locale := writeFile(t, root, "src/lib/locales/en.json", `{"page":{"heading":{"welcomehome":"Welcome!"}}}`)
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), false)
	require.NoError(t, err)
	assert.True(t, res.Success)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, locale)), &got))
	assert.Equal(t, map[string]any{
		"page": map[string]any{
			"heading":     map[string]any{"welcomehome": "Welcome!"},
			"placeholder": map[string]any{"searchitems": "Search items"},
		},
	}, got)
}

func TestReadBackup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/page.tsx", homePage)
	writeFile(t, root, "src/components/Nav.tsx", "<p>Navigation help</p>\n")
	s := newTestScrubber(t, root, nil)

	scan, err := s.Scan(context.Background())
	require.NoError(t, err)
	res, err := s.Apply(context.Background(), scan.Replacements, ids(scan.Replacements), true)
	require.NoError(t, err)

	files, err := s.ReadBackup(res.BackupPath)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "src/app/page.tsx", files[0].Path)
	assert.Equal(t, homePage, string(files[0].Data))
	assert.Equal(t, "src/components/Nav.tsx", files[1].Path)

	_, err = s.ReadBackup(filepath.Join(root, "src"))
	assert.ErrorIs(t, err, ErrPathOutsideRoot)
}
