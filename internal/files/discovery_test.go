package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		period string
		ok     bool
	}{
		{"normalized_sales_2024_02.csv", KindNormalized, "2024_02", true},
		{"normalized_sales_all.csv", KindNormalized, "all", true},
		{"abc_analysis_results_2024_02.csv", KindClassification, "2024_02", true},
		{"abc_summary_all.csv", KindTierSummary, "all", true},
		{"trimmed_sales_2024_02.csv", KindTrimmed, "2024_02", true},
		{"abc_analysis_2024_02.xlsx", KindWorkbook, "2024_02", true},
		{"abc_analysis_2024_02.csv", "", "", false},
		{"trimmed_sales_all.csv", "", "", false},
		{"notes.txt", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, period, ok := Classify(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.period, period)
		})
	}
}

func TestListReports(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"normalized_sales_2024_02.csv",
		"abc_analysis_2024_02.xlsx",
		"abc_summary_all.csv",
		"readme.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "normalized_sales_2023_01.csv"), 0755))

	reports, err := NewDiscovery(dir).ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "abc_analysis_2024_02.xlsx", reports[0].Name)
	assert.Equal(t, KindWorkbook, reports[0].Kind)
	assert.Equal(t, filepath.Join(dir, "abc_analysis_2024_02.xlsx"), reports[0].Path)
	assert.EqualValues(t, 1, reports[0].Size)

	assert.Len(t, FilterByPeriod(reports, "2024_02"), 2)
	assert.Len(t, FilterByKind(reports, KindTierSummary), 1)
}

func TestListReports_MissingDir(t *testing.T) {
	reports, err := NewDiscovery(filepath.Join(t.TempDir(), "absent")).ListReports()
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc_summary_2024_02.csv"), []byte("x"), 0644))
	d := NewDiscovery(dir)

	f, ok, err := d.Find("abc_summary_2024_02.csv")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, KindTierSummary, f.Kind)

	for _, name := range []string{"", "../abc_summary_2024_02.csv", "abc_summary_2023_01.csv"} {
		_, ok, err = d.Find(name)
		require.NoError(t, err)
		assert.False(t, ok, name)
	}
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "a", ModTime: now.Add(-time.Hour)},
		{Name: "b", ModTime: now},
		{Name: "c", ModTime: now.Add(-2 * time.Hour)},
	})
	assert.True(t, ok)
	assert.Equal(t, "b", latest.Name)
}
