// Command scrub scans a JSX/TSX project for hardcoded UI strings and
// rewrites them into translation lookups without going through the API.
//
//	scrub scan
//	scrub --ids src/app/page.tsx-12-0,src/app/page.tsx-14-0 apply
//	scrub --all --no-backup apply
//	scrub --json audit
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/napalu/goopt/v2"

	"textscrub/internal/config"
	"textscrub/internal/logger"
	"textscrub/internal/model"
	"textscrub/internal/scrubber"
)

// Options defines the command line, bound by goopt struct tags.
type Options struct {
	Root     string `goopt:"name:root;short:r;desc:Project root (defaults to SCRUB_PROJECT_ROOT or the nearest directory holding src/)"`
	JSON     bool   `goopt:"name:json;short:j;desc:Print reports as JSON"`
	IDs      string `goopt:"name:ids;desc:Comma separated replacement IDs to apply"`
	All      bool   `goopt:"name:all;short:a;desc:Apply every replacement found"`
	NoBackup bool   `goopt:"name:no-backup;desc:Skip the backup copy before writing"`
	Verbose  bool   `goopt:"name:verbose;short:v;desc:Log progress to stderr"`
	Help     bool   `goopt:"name:help;short:h;desc:Show this help message"`

	Scan  struct{} `goopt:"kind:command;name:scan;desc:Report hardcoded strings without changing files"`
	Apply struct{} `goopt:"kind:command;name:apply;desc:Rewrite the selected strings into t() lookups"`
	Audit struct{} `goopt:"kind:command;name:audit;desc:Report hardcoded strings and keys missing from the catalog"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &Options{}
	parser, err := goopt.NewParserFromStruct(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error initializing parser: %v\n", err)
		return 2
	}

	ok := parser.Parse(args)
	if opts.Help {
		parser.PrintUsageWithGroups(stdout)
		return 0
	}
	if !ok {
		fmt.Fprintln(stderr, "Error: Invalid command-line arguments.")
		for _, parseErr := range parser.GetErrors() {
			fmt.Fprintf(stderr, " - %s\n", parseErr)
		}
		fmt.Fprintln(stderr, "")
		parser.PrintUsageWithGroups(stderr)
		return 2
	}

	sc, err := newScrubber(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case parser.HasCommand("scan"):
		return runScan(ctx, sc, opts, stdout, stderr)
	case parser.HasCommand("apply"):
		return runApply(ctx, sc, opts, stdout, stderr)
	case parser.HasCommand("audit"):
		return runAudit(ctx, sc, opts, stdout, stderr)
	}

	fmt.Fprintln(stderr, "Error: one of scan, apply or audit is required.")
	parser.PrintUsageWithGroups(stderr)
	return 2
}

func newScrubber(opts *Options, stderr io.Writer) (*scrubber.Scrubber, error) {
	cfg := config.Load()

	level := "error"
	if opts.Verbose {
		level = "debug"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	log := logger.NewWithWriter(stderr, level, loc)

	configured := opts.Root
	if configured == "" {
		configured = cfg.Scrubber.ProjectRoot
	}
	cwd, _ := os.Getwd()

	return scrubber.New(config.ResolveProjectRoot(configured, cwd), scrubber.Options{
		SourceDirs: cfg.Scrubber.SourceDirs,
		Extensions: cfg.Scrubber.Extensions,
		BackupDir:  cfg.Scrubber.BackupDir,
		LocaleFile: cfg.Scrubber.LocaleFile,
		ImportLine: cfg.Scrubber.ImportLine,
		HookLine:   cfg.Scrubber.HookLine,
		Logger:     log,
	})
}

func runScan(ctx context.Context, sc *scrubber.Scrubber, opts *Options, stdout, stderr io.Writer) int {
	res, err := sc.Scan(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.JSON {
		return printJSON(stdout, stderr, res)
	}
	printReplacements(stdout, res.Replacements)
	fmt.Fprintf(stdout, "\n%d strings in %d components (%d files scanned, %d skipped)\n",
		res.TotalFound, res.ComponentsAffected, res.FilesScanned, res.FilesSkipped)
	return 0
}

func runApply(ctx context.Context, sc *scrubber.Scrubber, opts *Options, stdout, stderr io.Writer) int {
	ids := parseIDs(opts.IDs)
	if len(ids) == 0 && !opts.All {
		fmt.Fprintln(stderr, "Error: apply needs --ids or --all.")
		return 2
	}

	scan, err := sc.Scan(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.All {
		ids = make([]string, 0, len(scan.Replacements))
		for _, r := range scan.Replacements {
			ids = append(ids, r.ID)
		}
	}

	res, err := sc.Apply(ctx, scan.Replacements, ids, !opts.NoBackup)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.JSON {
		if code := printJSON(stdout, stderr, res); code != 0 {
			return code
		}
	} else {
		printApplyResult(stdout, res)
	}
	if len(res.Errors) > 0 {
		return 1
	}
	return 0
}

func runAudit(ctx context.Context, sc *scrubber.Scrubber, opts *Options, stdout, stderr io.Writer) int {
	rep, err := sc.Audit(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.JSON {
		if code := printJSON(stdout, stderr, rep); code != 0 {
			return code
		}
	} else {
		printAudit(stdout, rep)
	}
	if rep.TotalIssues > 0 {
		return 1
	}
	return 0
}

// parseIDs splits a comma separated list, dropping blanks and duplicates.
func parseIDs(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func printJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printReplacements(w io.Writer, recs []model.Replacement) {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tKEY\tTYPE\tTEXT")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Key, r.Type, r.Text)
	}
	tw.Flush()
}

func printApplyResult(w io.Writer, res *model.ApplyResult) {
	fmt.Fprintf(w, "applied %d replacements in %d files\n", res.Applied, len(res.FilesModified))
	for _, f := range res.FilesModified {
		fmt.Fprintf(w, "  %s\n", f)
	}
	if res.BackupPath != "" {
		fmt.Fprintf(w, "backup: %s\n", res.BackupPath)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
}

func printAudit(w io.Writer, rep *model.AuditReport) {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tFILE\tLINE\tTEXT\tKEY")
	for _, is := range rep.Issues {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", is.Type, is.File, is.Line, is.Text, is.SuggestedKey)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d issues in %d components\n", rep.TotalIssues, rep.ComponentsWithIssue)
}
