package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"textscrub/internal/logger"
	"textscrub/internal/model"
	"textscrub/internal/repository"
	"textscrub/internal/scrubber"
	"textscrub/internal/storage"
)

var (
	ErrScanNotFound   = errors.New("scan session not found or expired")
	ErrNoReplacements = errors.New("selectedIds is required")
)

const tracerName = "textscrub/internal/service"

// ApplyRequest selects which replacements to write. Records come from the
// stored scan named by ScanID, else from Replacements, else from a fresh scan.
type ApplyRequest struct {
	ScanID       string
	SelectedIDs  []string
	CreateBackup bool
	Replacements []model.Replacement
}

// ScrubService defines the translation scrubbing use cases.
type ScrubService interface {
	// Scan reports hardcoded strings and stores the result as a session.
	Scan(ctx context.Context) (*model.ScanResult, error)

	// Apply rewrites the selected replacements. Per-file failures end up in
	// the result's Errors, not in the returned error.
	Apply(ctx context.Context, req ApplyRequest) (*model.ApplyResult, error)

	// Audit lists hardcoded strings and keys missing from the catalog.
	Audit(ctx context.Context) (*model.AuditReport, error)
}

// Options tunes session lifetime and wires observability. Zero values are usable.
type Options struct {
	SessionTTL time.Duration
	Logger     *slog.Logger
	Metrics    *Metrics
	Now        func() time.Time
}

type scrubService struct {
	sc      *scrubber.Scrubber
	repo    repository.ScanRepository
	store   storage.Storage
	ttl     time.Duration
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time
	tracer  trace.Tracer

	// applyMu keeps two apply passes in this process from interleaving writes.
	applyMu sync.Mutex
}

// NewScrubService constructs a ScrubService. store may be nil, which
// disables backup mirroring.
func NewScrubService(sc *scrubber.Scrubber, repo repository.ScanRepository, store storage.Storage, opts Options) ScrubService {
	s := &scrubService{
		sc:      sc,
		repo:    repo,
		store:   store,
		ttl:     opts.SessionTTL,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		tracer:  otel.Tracer(tracerName),
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *scrubService) Scan(ctx context.Context) (*model.ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "scrub.scan")
	defer span.End()
	start := time.Now()

	res, err := s.sc.Scan(ctx)
	if err != nil {
		fail(span, err)
		return nil, err
	}

	now := s.now().UTC()
	if n, err := s.repo.DeleteOlderThan(ctx, now.Add(-s.ttl)); err != nil {
		s.log.Warn("scan_session_prune_failed", "error", err.Error())
	} else if n > 0 {
		s.log.Info("scan_session_pruned", "count", n)
	}

	session := &model.ScanSession{
		ID:                 uuid.New().String(),
		ProjectRoot:        s.sc.Root(),
		TotalFound:         res.TotalFound,
		ComponentsAffected: res.ComponentsAffected,
		Replacements:       res.Replacements,
		CreatedAt:          now,
	}
	if _, err := s.repo.Create(ctx, session); err != nil {
		err = fmt.Errorf("store scan session: %w", err)
		fail(span, err)
		return nil, err
	}
	res.ScanID = session.ID

	span.SetAttributes(
		attribute.String("scrub.scan_id", res.ScanID),
		attribute.Int("scrub.total_found", res.TotalFound),
		attribute.Int("scrub.files_scanned", res.FilesScanned),
	)
	if s.metrics != nil {
		s.metrics.scans.Inc()
		s.metrics.replacementsFound.Add(float64(res.TotalFound))
		s.metrics.duration.WithLabelValues("scan").Observe(time.Since(start).Seconds())
	}
	return res, nil
}

func (s *scrubService) Apply(ctx context.Context, req ApplyRequest) (*model.ApplyResult, error) {
	if req.SelectedIDs == nil {
		return nil, ErrNoReplacements
	}

	ctx, span := s.tracer.Start(ctx, "scrub.apply")
	defer span.End()
	start := time.Now()

	records, source, err := s.records(ctx, req)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scrub.records_source", source),
		attribute.Int("scrub.selected", len(req.SelectedIDs)),
		attribute.Bool("scrub.create_backup", req.CreateBackup),
	)

	s.applyMu.Lock()
	res, err := s.sc.Apply(ctx, records, req.SelectedIDs, req.CreateBackup)
	s.applyMu.Unlock()
	if err != nil {
		fail(span, err)
		return nil, err
	}

	if req.ScanID != "" && res.Applied > 0 {
		if err := s.repo.MarkApplied(ctx, req.ScanID, s.now().UTC()); err != nil {
			s.log.Warn("scan_session_mark_failed", "scan_id", req.ScanID, "error", err.Error())
		}
	}
	if res.BackupPath != "" && s.store != nil {
		s.mirrorBackup(ctx, res.BackupPath)
	}

	span.SetAttributes(
		attribute.Int("scrub.applied", res.Applied),
		attribute.Int("scrub.errors", len(res.Errors)),
	)
	if !res.Success {
		span.SetStatus(codes.Error, "apply completed with errors")
	}
	if s.metrics != nil {
		s.metrics.applied.Add(float64(res.Applied))
		s.metrics.applyErrors.Add(float64(len(res.Errors)))
		s.metrics.duration.WithLabelValues("apply").Observe(time.Since(start).Seconds())
	}
	return res, nil
}

func (s *scrubService) Audit(ctx context.Context) (*model.AuditReport, error) {
	ctx, span := s.tracer.Start(ctx, "scrub.audit")
	defer span.End()
	start := time.Now()

	report, err := s.sc.Audit(ctx)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("scrub.total_issues", report.TotalIssues))
	if s.metrics != nil {
		s.metrics.duration.WithLabelValues("audit").Observe(time.Since(start).Seconds())
	}
	return report, nil
}

// records picks the replacement set an apply works against.
func (s *scrubService) records(ctx context.Context, req ApplyRequest) ([]model.Replacement, string, error) {
	if req.ScanID != "" {
		session, err := s.repo.FindByID(ctx, req.ScanID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrScanNotFound
		}
		if err != nil {
			return nil, "", fmt.Errorf("load scan session: %w", err)
		}
		if session.ProjectRoot != s.sc.Root() || s.now().After(session.CreatedAt.Add(s.ttl)) {
			return nil, "", ErrScanNotFound
		}
		return session.Replacements, "session", nil
	}
	if len(req.Replacements) > 0 {
		return req.Replacements, "request", nil
	}

	res, err := s.sc.Scan(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("rescan: %w", err)
	}
	return res.Replacements, "rescan", nil
}

// mirrorBackup uploads a backup directory to object storage. On failure the
// objects already uploaded are removed again; the local backup stays.
func (s *scrubService) mirrorBackup(ctx context.Context, dir string) {
	files, err := s.sc.ReadBackup(dir)
	if err != nil {
		s.mirrorFailed(dir, err)
		return
	}

	prefix := path.Join("backups", filepath.Base(dir))
	var uploaded []string
	for _, f := range files {
		key := path.Join(prefix, f.Path)
		_, err := s.store.Put(ctx, key, bytes.NewReader(f.Data), storage.PutObjectOptions{
			Size:        int64(len(f.Data)),
			ContentType: "text/plain; charset=utf-8",
			Metadata:    map[string]string{"source-path": f.Path},
		})
		if err != nil {
			for _, k := range uploaded {
				if delErr := s.store.Delete(ctx, k); delErr != nil {
					s.log.Warn("backup_mirror_rollback_failed", "key", k, "error", delErr.Error())
				}
			}
			s.mirrorFailed(dir, fmt.Errorf("upload %s: %w", key, err))
			return
		}
		uploaded = append(uploaded, key)
	}

	s.log.Info("backup_mirrored", "path", dir, "prefix", prefix, "files", len(uploaded))
	if s.metrics != nil {
		s.metrics.backupsMirrored.WithLabelValues("success").Inc()
	}
}

func (s *scrubService) mirrorFailed(dir string, err error) {
	s.log.Warn("backup_mirror_failed", "path", dir, "error", err.Error())
	if s.metrics != nil {
		s.metrics.backupsMirrored.WithLabelValues("error").Inc()
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
