package changes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *fixture) {
	f := setupFixture(t)
	locations, err := NewLocations(f.dir, "papers")
	require.NoError(t, err)

	app := fiber.New()
	NewHandler(f.service, locations).RegisterRoutes(app)
	return app, f
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// scanID runs a scan through the API and returns its id.
func scanID(t *testing.T, app *fiber.App, f *fixture) string {
	t.Helper()
	status, body := postJSON(t, app, "/changes/scan", map[string]string{
		"document": f.document,
		"baseline": f.baseline,
	})
	require.Equal(t, 200, status)
	id, ok := body["scan_id"].(string)
	require.True(t, ok)
	return id
}

func TestHandleScan(t *testing.T) {
	app, f := setupTestApp(t)

	status, body := postJSON(t, app, "/changes/scan", map[string]string{
		"document": f.document,
		"baseline": f.baseline,
	})

	assert.Equal(t, 200, status)
	assert.Equal(t, "changes_found", body["status"])
	assert.NotEmpty(t, body["scan_id"])
	assert.Len(t, body["changes"], 2)
}

func TestHandleScan_Errors(t *testing.T) {
	app, f := setupTestApp(t)

	t.Run("Missing baseline", func(t *testing.T) {
		status, body := postJSON(t, app, "/changes/scan", map[string]string{"document": f.document})
		assert.Equal(t, 400, status)
		assert.Contains(t, body["error"], "document and baseline are required")
	})

	t.Run("Outside root", func(t *testing.T) {
		status, body := postJSON(t, app, "/changes/scan", map[string]string{
			"document": filepath.Join(filepath.Dir(f.dir), "refs.bib"),
			"baseline": f.baseline,
		})
		assert.Equal(t, 403, status)
		assert.Contains(t, body["error"], ErrOutsideRoot.Error())
	})

	t.Run("Other bucket", func(t *testing.T) {
		status, _ := postJSON(t, app, "/changes/scan", map[string]string{
			"document": "s3://private/refs.bib",
			"baseline": f.baseline,
		})
		assert.Equal(t, 403, status)
	})

	t.Run("Missing document", func(t *testing.T) {
		status, body := postJSON(t, app, "/changes/scan", map[string]string{
			"document": filepath.Join(f.dir, "missing.bib"),
			"baseline": f.baseline,
		})
		assert.Equal(t, 422, status)
		assert.Equal(t, "failed", body["status"])
	})

	t.Run("Malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/changes/scan", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleAccept(t *testing.T) {
	app, f := setupTestApp(t)
	output := filepath.Join(f.dir, "work.bib")
	id := scanID(t, app, f)

	status, body := postJSON(t, app, "/changes/accept", map[string]any{
		"scan_id":   id,
		"document":  f.document,
		"baseline":  f.baseline,
		"output":    "work.bib",
		"accept":    []int{1, 2},
		"confirmed": true,
	})
	f.service.Wait()

	assert.Equal(t, 200, status)
	assert.Equal(t, output, body["output"])
	assert.Equal(t, true, body["baseline_updated"])
	assert.Len(t, body["applied"], 2)
	assert.FileExists(t, output)

	status, _ = postJSON(t, app, "/changes/accept", map[string]any{
		"scan_id":   id,
		"document":  f.document,
		"baseline":  f.baseline,
		"output":    "work.bib",
		"confirmed": true,
	})
	assert.Equal(t, 404, status)
}

// TestHandleAccept_DocumentChanged tests that an accept is refused when the
// document changed after the scan was reviewed.
func TestHandleAccept_DocumentChanged(t *testing.T) {
	app, f := setupTestApp(t)
	output := filepath.Join(f.dir, "work.bib")
	id := scanID(t, app, f)

	writeFile(t, f.document, documentBib+"@article{delta, author = {Di Lee}, title = {Delta}, year = 2022}\n")

	status, body := postJSON(t, app, "/changes/accept", map[string]any{
		"scan_id":   id,
		"document":  f.document,
		"baseline":  f.baseline,
		"output":    output,
		"accept":    []int{1, 2},
		"confirmed": true,
	})
	f.service.Wait()

	assert.Equal(t, 409, status)
	assert.Contains(t, body["error"], ErrScanMismatch.Error())
	assert.NoFileExists(t, output)

	content, err := os.ReadFile(f.baseline)
	require.NoError(t, err)
	assert.Equal(t, baselineBib, string(content))
}

func TestHandleAccept_Errors(t *testing.T) {
	app, f := setupTestApp(t)

	t.Run("Unknown change", func(t *testing.T) {
		status, _ := postJSON(t, app, "/changes/accept", map[string]any{
			"scan_id":  scanID(t, app, f),
			"document": f.document,
			"baseline": f.baseline,
			"output":   filepath.Join(f.dir, "work.bib"),
			"accept":   []int{42},
		})
		assert.Equal(t, 400, status)
	})

	t.Run("No output", func(t *testing.T) {
		status, body := postJSON(t, app, "/changes/accept", map[string]any{
			"scan_id":   scanID(t, app, f),
			"document":  f.document,
			"baseline":  f.baseline,
			"confirmed": true,
		})
		assert.Equal(t, 400, status)
		assert.Equal(t, ErrNoOutput.Error(), body["error"])
	})

	t.Run("Output is baseline", func(t *testing.T) {
		status, body := postJSON(t, app, "/changes/accept", map[string]any{
			"scan_id":   scanID(t, app, f),
			"document":  f.document,
			"baseline":  f.baseline,
			"output":    "baseline.bib",
			"confirmed": true,
		})
		assert.Equal(t, 400, status)
		assert.Contains(t, body["error"], "output must differ from the baseline")
	})

	t.Run("Output outside root", func(t *testing.T) {
		status, _ := postJSON(t, app, "/changes/accept", map[string]any{
			"scan_id":   scanID(t, app, f),
			"document":  f.document,
			"baseline":  f.baseline,
			"output":    "../work.bib",
			"confirmed": true,
		})
		assert.Equal(t, 403, status)
	})

	t.Run("Missing scan id", func(t *testing.T) {
		status, body := postJSON(t, app, "/changes/accept", map[string]any{
			"document": f.document,
			"baseline": f.baseline,
		})
		assert.Equal(t, 400, status)
		assert.Contains(t, body["error"], "scan_id is required")
	})

	t.Run("Unknown scan", func(t *testing.T) {
		status, _ := postJSON(t, app, "/changes/accept", map[string]any{
			"scan_id":  "no-such-scan",
			"document": f.document,
			"baseline": f.baseline,
		})
		assert.Equal(t, 404, status)
	})

	t.Run("Other documents", func(t *testing.T) {
		status, _ := postJSON(t, app, "/changes/accept", map[string]any{
			"scan_id":  scanID(t, app, f),
			"document": f.document,
			"baseline": f.baseline,
			"memory":   "work.bib",
		})
		assert.Equal(t, 409, status)
	})
}

func TestHandleHistory(t *testing.T) {
	app, f := setupTestApp(t)

	postJSON(t, app, "/changes/scan", map[string]string{"document": f.document, "baseline": f.baseline})
	postJSON(t, app, "/changes/scan", map[string]string{"document": f.document, "baseline": f.baseline})

	req := httptest.NewRequest("GET", "/changes/history?limit=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["count"])
	assert.Len(t, body["scans"], 1)
}
