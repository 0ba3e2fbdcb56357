package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

type stubRuns struct {
	running bool
	err     error
}

func (s stubRuns) Running() bool    { return s.running }
func (s stubRuns) LastError() error { return s.err }

func inputPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	p := &config.Paths{
		TransactionsFile: filepath.Join(dir, "sales.csv"),
		ProductsFile:     filepath.Join(dir, "products.csv"),
		CategoriesFile:   filepath.Join(dir, "categories.csv"),
	}
	for _, f := range []string{p.TransactionsFile, p.ProductsFile, p.CategoriesFile} {
		require.NoError(t, os.WriteFile(f, []byte("x\n"), 0644))
	}
	return p
}

func TestHealthService_HealthAndLiveness(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil, nil, quietLogger())

	h := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "1.2.3", h.Version)

	l := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", l.Status)
	assert.Contains(t, l.Runtime, "goroutines")
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	hub := &MockClientCounter{}
	hub.On("ClientCount").Return(2)

	tests := []struct {
		name       string
		paths      func(t *testing.T) *config.Paths
		runs       RunStatusProvider
		wantStatus string
		failing    string
	}{
		{"all ready", inputPaths, stubRuns{}, "ready", ""},
		{"missing input", func(t *testing.T) *config.Paths {
			p := inputPaths(t)
			p.ProductsFile = filepath.Join(t.TempDir(), "none.csv")
			return p
		}, stubRuns{}, "not_ready", "inputs"},
		{"last run failed", inputPaths, stubRuns{err: errors.New("boom")}, "not_ready", "pipeline"},
		{"no pipeline", inputPaths, nil, "not_ready", "pipeline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("dev", tt.paths(t), tt.runs, hub, quietLogger())
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			if tt.failing != "" {
				assert.Equal(t, "not_ready", status.Services[tt.failing].(ServiceHealth).Status)
			}
			assert.Equal(t, "2 clients connected", status.Services["websocket"].(ServiceHealth).Message)
		})
	}
	hub.AssertCalled(t, "ClientCount")
}

func TestHealthService_RunInProgressIsReady(t *testing.T) {
	hs := NewHealthService("dev", inputPaths(t), stubRuns{running: true}, nil, quietLogger())
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "run in progress", status.Services["pipeline"].(ServiceHealth).Message)
}
