package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/files"
)

func newFilesHandler(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"normalized_sales_2024_02.csv": "SalesDate\n",
		"abc_summary_2024_02.csv":      "Tier\n",
		"abc_summary_all.csv":          "Tier\n",
		"secret.txt":                   "nope",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFilesHandler(files.NewDiscovery(dir), logger, nil).Routes(), dir
}

func TestFilesHandler_List(t *testing.T) {
	h, _ := newFilesHandler(t)

	rec, body := serve(t, h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["count"])
	first := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "abc_summary_2024_02.csv", first["name"])
	assert.Equal(t, "tier_summary", first["kind"])
	assert.NotContains(t, first, "Path")

	_, body = serve(t, h, http.MethodGet, "/?kind=tier_summary&period=all")
	assert.EqualValues(t, 1, body["count"])

	rec, _ = serve(t, h, http.MethodGet, "/?kind=pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilesHandler_Download(t *testing.T) {
	h, _ := newFilesHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/normalized_sales_2024_02.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SalesDate\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "normalized_sales_2024_02.csv")

	for _, target := range []string{"/secret.txt", "/abc_summary_2023_01.csv"} {
		rec, _ := serve(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}
