package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"textscrub/internal/auth"
	"textscrub/internal/http/middleware"
	"textscrub/internal/model"
	"textscrub/internal/repository/memory"
	"textscrub/internal/scrubber"
	"textscrub/internal/service"
	serviceMocks "textscrub/internal/service/mocks"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "postgres", body["store"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, CodeServiceUnavailable, decodeError(t, resp).Error.Code)
	})

	t.Run("memory store", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScrub(t *testing.T) {
	mockSvc := new(serviceMocks.MockScrubService)
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Post("/scrub", Scrub(mockSvc, nil))

	t.Run("scan", func(t *testing.T) {
		expected := &model.ScanResult{
			ScanID:             "0b0e6b5c-3f5d-4a59-9a3b-2d1c0e9f8a7b",
			TotalFound:         1,
			ComponentsAffected: 1,
			Replacements:       []model.Replacement{{ID: "src/app/page.tsx-4-0", Key: "page.heading.welcomehome"}},
		}
		mockSvc.On("Scan", mock.Anything).Return(expected, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", `{"action":"scan"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.ScanResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, expected.ScanID, result.ScanID)
		assert.Equal(t, 1, result.TotalFound)
		assert.Len(t, result.Replacements, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("apply defaults createBackup to true", func(t *testing.T) {
		mockSvc.On("Apply", mock.Anything, service.ApplyRequest{
			ScanID:       "0b0e6b5c-3f5d-4a59-9a3b-2d1c0e9f8a7b",
			SelectedIDs:  []string{"a", "b"},
			CreateBackup: true,
		}).Return(&model.ApplyResult{Success: true, BackupPath: "/srv/.backups/scrubber-1", Errors: []string{}}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub",
			`{"action":"apply","scanId":"0b0e6b5c-3f5d-4a59-9a3b-2d1c0e9f8a7b","selectedIds":["a","b"]}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.ApplyResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.Success)
		assert.Equal(t, "/srv/.backups/scrubber-1", result.BackupPath)
		mockSvc.AssertExpectations(t)
	})

	t.Run("apply without backup and with replacements", func(t *testing.T) {
		rec := model.Replacement{
			ID: "r1", FilePath: "src/app/page.tsx", Line: 4,
			OriginalText: "<h1>Hi there</h1>", Replacement: "<h1>{t('page.heading.hithere')}</h1>", Key: "page.heading.hithere",
		}
		mockSvc.On("Apply", mock.Anything, service.ApplyRequest{
			SelectedIDs:  []string{"r1"},
			CreateBackup: false,
			Replacements: []model.Replacement{rec},
		}).Return(&model.ApplyResult{Success: true, Errors: []string{}}, nil).Once()

		body, _ := json.Marshal(map[string]any{
			"action":       "apply",
			"selectedIds":  []string{"r1"},
			"createBackup": false,
			"replacements": []model.Replacement{rec},
		})
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", string(body)))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("apply partial failure is still 200", func(t *testing.T) {
		mockSvc.On("Apply", mock.Anything, mock.Anything).
			Return(&model.ApplyResult{Success: false, Errors: []string{"Error in src/app/a.tsx: disk full"}}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", `{"action":"apply","selectedIds":["x"]}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.ApplyResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.False(t, result.Success)
		assert.Equal(t, []string{"Error in src/app/a.tsx: disk full"}, result.Errors)
	})

	t.Run("selectedIds missing", func(t *testing.T) {
		mockSvc.On("Apply", mock.Anything, service.ApplyRequest{CreateBackup: true}).
			Return(nil, service.ErrNoReplacements).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", `{"action":"apply"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, CodeSelectedIDsRequired, body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("selectedIds not an array", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", `{"action":"apply","selectedIds":"a"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, CodeSelectedIDsRequired, decodeError(t, resp).Error.Code)
	})

	t.Run("scan not found", func(t *testing.T) {
		mockSvc.On("Apply", mock.Anything, mock.Anything).Return(nil, service.ErrScanNotFound).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub",
			`{"action":"apply","scanId":"0b0e6b5c-3f5d-4a59-9a3b-2d1c0e9f8a7b","selectedIds":[]}`))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, CodeScanNotFound, decodeError(t, resp).Error.Code)
	})

	t.Run("invalid action", func(t *testing.T) {
		for _, body := range []string{`{"action":"delete"}`, `{}`} {
			resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, CodeInvalidAction, decodeError(t, resp).Error.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		for _, body := range []string{
			`not json`,
			`{"action":"apply","scanId":"not-a-uuid","selectedIds":[]}`,
			`{"action":"apply","selectedIds":["r1"],"replacements":[{"id":"r1"}]}`,
		} {
			resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Equal(t, CodeInvalidBody, decodeError(t, resp).Error.Code, body)
		}
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Scan", mock.Anything).Return(nil, errors.New("walk failed")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/scrub", `{"action":"scan"}`))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, CodeInternal, body.Error.Code)
		assert.NotContains(t, body.Error.Message, "walk failed")
	})
}

func TestAudit(t *testing.T) {
	mockSvc := new(serviceMocks.MockScrubService)
	app := fiber.New()
	app.Get("/audit", Audit(mockSvc, nil))

	mockSvc.On("Audit", mock.Anything).Return(&model.AuditReport{
		Issues:              []model.AuditIssue{{Component: "Nav", Type: model.IssueMissingTranslation}},
		TotalIssues:         1,
		ComponentsWithIssue: 1,
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/audit", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var report map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, float64(1), report["totalIssues"])
	assert.Equal(t, float64(1), report["componentsWithIssues"])
	mockSvc.AssertExpectations(t)
}

// TestRouting exercises the full admin surface over a real project tree.
func TestRouting(t *testing.T) {
	root := t.TempDir()
	page := filepath.Join(root, "src", "app", "page.tsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(page), 0o755))
	original := []byte("export default function HomePage() {\n  return <h1>Welcome Home</h1>;\n}\n")
	require.NoError(t, os.WriteFile(page, original, 0o644))

	sc, err := scrubber.New(root, scrubber.Options{})
	require.NoError(t, err)
	svc := service.NewScrubService(sc, memory.NewScanMemory(), nil, service.Options{})

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin-secret"), bcrypt.MinCost)
	editorHash, _ := bcrypt.GenerateFromPassword([]byte("editor-secret"), bcrypt.MinCost)
	authn, err := auth.New("admin:SUPER_ADMIN:"+string(adminHash)+",editor:EDITOR:"+string(editorHash), "SUPER_ADMIN")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, Deps{Service: svc, Auth: authn})

	call := func(token, body string) *http.Response {
		req := jsonRequest(http.MethodPost, "/api/admin/translations/scrub", body)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("non admin is forbidden and nothing changes", func(t *testing.T) {
		resp := call("editor.editor-secret", `{"action":"apply","selectedIds":["src/app/page.tsx-2-0"]}`)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, CodeForbidden, decodeError(t, resp).Error.Code)
		data, _ := os.ReadFile(page)
		assert.Equal(t, original, data)
		_, err := os.Stat(filepath.Join(root, ".backups"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing token", func(t *testing.T) {
		resp := call("", `{"action":"scan"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, CodeUnauthorized, decodeError(t, resp).Error.Code)
	})

	t.Run("scan then apply by scan id", func(t *testing.T) {
		resp := call("admin.admin-secret", `{"action":"scan"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var scan model.ScanResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&scan))
		require.Len(t, scan.Replacements, 1)
		assert.Equal(t, "page.heading.welcomehome", scan.Replacements[0].Key)

		body, _ := json.Marshal(map[string]any{
			"action":      "apply",
			"scanId":      scan.ScanID,
			"selectedIds": []string{scan.Replacements[0].ID},
		})
		resp = call("admin.admin-secret", string(body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var res model.ApplyResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.True(t, res.Success)
		require.NotEmpty(t, res.BackupPath)

		data, _ := os.ReadFile(page)
		assert.True(t, bytes.Contains(data, []byte("<h1>{t('page.heading.welcomehome')}</h1>")))
		backup, err := os.ReadFile(filepath.Join(res.BackupPath, "src", "app", "page.tsx"))
		require.NoError(t, err)
		assert.Equal(t, original, backup)
	})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})
}
