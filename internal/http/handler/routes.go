package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"textscrub/internal/http/middleware"
	"textscrub/internal/model"
	"textscrub/internal/service"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators RegisterRoutes wires into handlers.
type Deps struct {
	// DB is nil when sessions are kept in memory.
	DB      Pinger
	Service service.ScrubService
	Auth    middleware.Authenticator
	Logger  *slog.Logger
}

// RegisterRoutes attaches the health probes and the admin translation routes.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	admin := app.Group("/api/admin/translations", middleware.RequireAdmin(d.Auth))
	admin.Post("/scrub", Scrub(d.Service, d.Logger))
	admin.Get("/audit", Audit(d.Service, d.Logger))
}

// HealthCheck pings the session database. Without one the in-memory store is
// always healthy.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} errorPayload
// @Router   /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "store": "memory"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "store": "postgres"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// scrubRequest is the body of POST /api/admin/translations/scrub.
type scrubRequest struct {
	Action       string              `json:"action" validate:"required,oneof=scan apply"`
	ScanID       string              `json:"scanId" validate:"omitempty,uuid"`
	SelectedIDs  []string            `json:"selectedIds"`
	CreateBackup *bool               `json:"createBackup"`
	Replacements []model.Replacement `json:"replacements" validate:"omitempty,dive"`
}

var validate = validator.New()

// Scrub runs a scan or applies selected replacements.
//
// @Summary  Scan for or apply translation replacements
// @Tags     translations
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body scrubRequest true "scan or apply request"
// @Success  200 {object} model.ScanResult "action=scan"
// @Success  200 {object} model.ApplyResult "action=apply"
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Failure  403 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/admin/translations/scrub [post]
func Scrub(svc service.ScrubService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req scrubRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field == "selectedIds" {
				return writeError(c, fiber.StatusBadRequest, CodeSelectedIDsRequired, "selectedIds must be an array")
			}
			return writeError(c, fiber.StatusBadRequest, CodeInvalidBody, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].StructField() == "Action" {
				return writeError(c, fiber.StatusBadRequest, CodeInvalidAction, `action must be "scan" or "apply"`)
			}
			return writeError(c, fiber.StatusBadRequest, CodeInvalidBody, "invalid request body")
		}

		if req.Action == "scan" {
			res, err := svc.Scan(c.UserContext())
			if err != nil {
				return internalError(c, log, "scan", err)
			}
			return c.JSON(res)
		}

		createBackup := true
		if req.CreateBackup != nil {
			createBackup = *req.CreateBackup
		}
		res, err := svc.Apply(c.UserContext(), service.ApplyRequest{
			ScanID:       req.ScanID,
			SelectedIDs:  req.SelectedIDs,
			CreateBackup: createBackup,
			Replacements: req.Replacements,
		})
		switch {
		case errors.Is(err, service.ErrNoReplacements):
			return writeError(c, fiber.StatusBadRequest, CodeSelectedIDsRequired, "selectedIds is required")
		case errors.Is(err, service.ErrScanNotFound):
			return writeError(c, fiber.StatusNotFound, CodeScanNotFound, "scan not found or expired")
		case err != nil:
			return internalError(c, log, "apply", err)
		}
		return c.JSON(res)
	}
}

// Audit reports hardcoded strings and translation keys missing from the catalog.
//
// @Summary  Translation audit
// @Tags     translations
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.AuditReport
// @Failure  401 {object} errorPayload
// @Failure  403 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/admin/translations/audit [get]
func Audit(svc service.ScrubService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Audit(c.UserContext())
		if err != nil {
			return internalError(c, log, "audit", err)
		}
		return c.JSON(report)
	}
}

func internalError(c *fiber.Ctx, log *slog.Logger, op string, err error) error {
	if log != nil {
		log.Error("scrub_request_failed",
			"request_id", requestIDFromCtx(c),
			"operation", op,
			"error", err.Error(),
		)
	}
	return writeError(c, fiber.StatusInternalServerError, CodeInternal, "internal server error")
}
