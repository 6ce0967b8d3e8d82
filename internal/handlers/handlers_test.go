package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/evcms/internal/handlers"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	baseURL  = "http://localhost:8081"
	docURL   = "https://docs.example.com"
	maxBytes = 1024
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, e model.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

// uploads returns the recorded media upload events
func (a *recordingAuditor) uploads() []model.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.AuditEvent
	for _, e := range a.events {
		if e.Action == service.UploadMediaAction {
			out = append(out, e)
		}
	}
	return out
}

func newApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	return newAuditedApp(t, nil)
}

func newAuditedApp(t *testing.T, auditor service.Auditor) (*fiber.App, string) {
	t.Helper()
	root := t.TempDir()
	logger := zap.NewNop()

	content, err := store.NewContentStore(root)
	require.NoError(t, err)
	media, err := store.NewMediaStore(content, "public/uploads")
	require.NoError(t, err)

	urls := service.NewURLBuilder(baseURL, "local", "site", "main")
	cms := service.NewCMS(content, media, urls, service.CMSOptions{
		Version: "test", Owner: "local", Repo: "site", Branch: "main", PublicMediaPath: "/uploads",
	})
	router := service.NewRouter(cms, service.NewResponseCache(5*time.Second, nil), auditor, logger,
		service.RouterOptions{DocumentationURL: docURL})
	feed := service.NewFeedService(content, map[model.Collection]string{
		model.CollectionIntelligence: "content/intelligence",
		model.CollectionModels:       "content/models",
	})

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger, docURL)})
	app.Use(handlers.CORS("*"))
	app.Use(handlers.NoCache())
	handlers.Register(app, handlers.Deps{
		Router:  router,
		CMS:     cms,
		Feed:    feed,
		Metrics: service.NewMetricsService(feed, nil),
		EditorConfig: service.NewEditorConfig(service.EditorConfigOptions{
			BaseURL: baseURL, Owner: "local", Repo: "site", Branch: "main",
			IntelligenceFolder: "content/intelligence", ModelsFolder: "content/models",
			MediaFolder: "public/uploads", PublicMediaPath: "/uploads",
		}),
		Content:        content,
		MaxUploadBytes: maxBytes,
		Version:        "test",
		Logger:         logger,
	})
	return app, root
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func action(t *testing.T, app *fiber.App, name string, params any) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"action": name, "params": params})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/cms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func upload(t *testing.T, app *fiber.App, filename, contentType string, data []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cms/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, app, req)
}

func TestHeadersOnEveryResponse(t *testing.T) {
	app, _ := newApp(t)

	for _, path := range []string{"/api/cms/info", "/api/nope", "/api/public/models"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Origin", "http://localhost:3000")
		resp, _ := do(t, app, req)

		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"), path)
		assert.Equal(t, "no-cache", resp.Header.Get("Pragma"), path)
		assert.Equal(t, "0", resp.Header.Get("Expires"), path)
	}
}

func TestActionEndpoint(t *testing.T) {
	app, _ := newApp(t)

	resp, body := action(t, app, "persistEntry", map[string]any{
		"path": "content/intelligence/a.md",
		"raw":  "---\ntitle: \"Test\"\n---\nHello",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = action(t, app, "getEntry", map[string]any{"path": "content/intelligence/a.md"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	var entry struct {
		Data map[string]any `json:"data"`
		Raw  string         `json:"raw"`
	}
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.Equal(t, "Test", entry.Data["title"])
	assert.Contains(t, entry.Raw, "Hello")

	resp, _ = action(t, app, "getEntry", map[string]any{"path": "content/intelligence/a.md"})
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp, body = action(t, app, "explode", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errBody model.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errBody))
	assert.Equal(t, 404, errBody.Status)
	assert.Equal(t, docURL, errBody.DocumentationURL)
	assert.NotEmpty(t, errBody.Timestamp)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/cms", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestContentsEndpoint(t *testing.T) {
	app, root := newApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content", "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "models", "seal.md"), []byte("seal"), 0o644))

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/repos/local/site/contents/content/models", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing []model.RepositoryEntry
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "seal.md", listing[0].Name)

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/repos/local/site/contents/content/models/seal.md", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var file model.RepositoryEntry
	require.NoError(t, json.Unmarshal(body, &file))
	assert.Equal(t, "c2VhbA==", file.Content)

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/raw/content/models/seal.md", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "seal", string(body))

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/raw/content/models/missing.md", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMediaUpload(t *testing.T) {
	auditor := &recordingAuditor{}
	app, root := newAuditedApp(t, auditor)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/cms/media", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", string(body))

	resp, body = upload(t, app, "logo.png", "image/png", []byte("\x89PNG"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created model.RepositoryEntry
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "public/uploads/logo.png", created.Path)
	assert.FileExists(t, filepath.Join(root, "public", "uploads", "logo.png"))

	// the listing cached above must not be served after an upload
	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/cms/media", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var assets []model.MediaAsset
	require.NoError(t, json.Unmarshal(body, &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "logo.png", assets[0].Name)
	assert.Equal(t, "/uploads/logo.png", assets[0].URL)

	resp, _ = upload(t, app, "notes.txt", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = upload(t, app, "huge.png", "image/png", bytes.Repeat([]byte("x"), maxBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/cms/media", strings.NewReader(""))
	resp, _ = do(t, app, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	events := auditor.uploads()
	require.Len(t, events, 4)

	tests := []struct {
		target string
		status int
	}{
		{"public/uploads/logo.png", http.StatusCreated},
		{"public/uploads/notes.txt", http.StatusUnsupportedMediaType},
		{"public/uploads/huge.png", http.StatusRequestEntityTooLarge},
		{"", http.StatusBadRequest},
	}
	for i, tc := range tests {
		assert.Equal(t, http.MethodPost, events[i].Method)
		assert.Equal(t, "/api/cms/media", events[i].Path)
		assert.Equal(t, tc.target, events[i].Target)
		assert.Equal(t, tc.status, events[i].Status)
		assert.NotEmpty(t, events[i].RequestID)
	}
}

func TestPublicFeedHidesDrafts(t *testing.T) {
	app, root := newApp(t)
	dir := filepath.Join(root, "content", "intelligence")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "live.md"), []byte("---\ntitle: \"Live\"\n---\nx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.md"), []byte("---\ntitle: \"Draft\"\npublished: false\n---\nx"), 0o644))

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/public/intelligence", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.ContentItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "live", items[0].ID)

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Draft")

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total_items":2`)
}

func TestEditorConfigAndAudit(t *testing.T) {
	app, _ := newApp(t)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/cms/config", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"intelligence"`)

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/admin/config.yml", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "yaml")
	assert.Contains(t, string(body), "folder: content/models")

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/audit", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
