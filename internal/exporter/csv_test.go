package exporter

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	apperrors "salespulse/internal/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	tempDir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{ReportsDir: filepath.Join(tempDir, "reports")}, quietLogger())
	return writer, tempDir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{ReportsDir: "reports"}
	writer := NewCSVWriter(paths, nil)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
	assert.NotNil(t, writer.logger)

	assert.NotNil(t, NewCSVWriter(nil, nil).paths)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, content []byte)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options: WriteOptions{
				Headers: []string{"ProductID", "ProductName"},
				Records: [][]string{{"1", "Apple"}, {"2", "Bread"}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "ProductID,ProductName\n1,Apple\n2,Bread\n", string(content))
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "test_bom.csv",
			options: WriteOptions{
				Headers:   []string{"CategoryName"},
				Records:   [][]string{{"Produce"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content []byte) {
				assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
				assert.Equal(t, "CategoryName\nProduce\n", string(content[3:]))
			},
		},
		{
			name:     "special characters are quoted",
			filePath: "nested/special.csv",
			options: WriteOptions{
				Headers: []string{"ProductName"},
				Records: [][]string{{"Orange - Canned, Mandarin"}, {`Say "cheese"`}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "ProductName\n\"Orange - Canned, Mandarin\"\n\"Say \"\"cheese\"\"\"\n", string(content))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tempDir, "reports", tt.filePath), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.validate(t, content)
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	writer, _ := setupTestEnv(t)

	path, err := writer.WriteSimpleCSV("append.csv", []string{"A"}, [][]string{{"1"}})
	require.NoError(t, err)
	_, err = writer.WriteCSV("append.csv", WriteOptions{Headers: []string{"A"}, Records: [][]string{{"2"}}, Append: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "1", "2"}, readLines(t, path))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	abs := filepath.Join(tempDir, "elsewhere", "x.csv")
	assert.Equal(t, abs, writer.resolvePath(abs))
	assert.Equal(t, filepath.Join(tempDir, "reports", "x.csv"), writer.resolvePath("x.csv"))

	bare := NewCSVWriter(nil, quietLogger())
	assert.Equal(t, "x.csv", bare.resolvePath("x.csv"))
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	writer, _ := setupTestEnv(t)

	sw, err := writer.CreateStreamWriter("stream.csv", []string{"ProductID", "Quantity"})
	require.NoError(t, err)
	for _, rec := range [][]string{{"1", "2"}, {"3", "4"}} {
		require.NoError(t, sw.WriteRecord(rec))
	}
	assert.Equal(t, 2, sw.Rows())
	require.NoError(t, sw.Close())

	assert.Equal(t, []string{"ProductID,Quantity", "1,2", "3,4"}, readLines(t, sw.Path()))
}

func TestCSVWriter_StorageErrors(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	// a regular file where a directory is expected
	blocker := filepath.Join(tempDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := writer.WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{Records: [][]string{{"1"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	_, err = writer.CreateStreamWriter(filepath.Join(blocker, "out.csv"), nil)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}
