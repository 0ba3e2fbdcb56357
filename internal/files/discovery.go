package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Kind names the type of a report file
type Kind string

const (
	KindNormalized     Kind = "normalized"
	KindClassification Kind = "classification"
	KindTierSummary    Kind = "tier_summary"
	KindTrimmed        Kind = "trimmed"
	KindWorkbook       Kind = "workbook"
)

// Ordered longest prefix first: abc_analysis_results_ must win over abc_analysis_.
var patterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{KindNormalized, regexp.MustCompile(`^normalized_sales_(\d{4}_\d{2}|all)\.csv$`)},
	{KindClassification, regexp.MustCompile(`^abc_analysis_results_(\d{4}_\d{2}|all)\.csv$`)},
	{KindTierSummary, regexp.MustCompile(`^abc_summary_(\d{4}_\d{2}|all)\.csv$`)},
	{KindTrimmed, regexp.MustCompile(`^trimmed_sales_(\d{4}_\d{2})\.csv$`)},
	{KindWorkbook, regexp.MustCompile(`^abc_analysis_(\d{4}_\d{2}|all)\.xlsx$`)},
}

// FileInfo represents information about a discovered report file
type FileInfo struct {
	Path    string    `json:"-"`
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Period  string    `json:"period"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Discovery lists report files under one directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// Classify maps a file name to its report kind and period label
func Classify(name string) (Kind, string, bool) {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(name); m != nil {
			return p.kind, m[1], true
		}
	}
	return "", "", false
}

// ListReports returns the report files sorted by name. A reports directory
// that does not exist yet yields an empty list.
func (d *Discovery) ListReports() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", d.basePath, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		kind, period, ok := Classify(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.basePath, entry.Name()),
			Name:    entry.Name(),
			Kind:    kind,
			Period:  period,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Find returns the report with the given base name. Names carrying a path
// separator never match.
func (d *Discovery) Find(name string) (FileInfo, bool, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return FileInfo{}, false, nil
	}
	files, err := d.ListReports()
	if err != nil {
		return FileInfo{}, false, err
	}
	for _, f := range files {
		if f.Name == name {
			return f, true, nil
		}
	}
	return FileInfo{}, false, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// FilterByKind keeps the files of one kind
func FilterByKind(files []FileInfo, kind Kind) []FileInfo {
	var filtered []FileInfo
	for _, f := range files {
		if f.Kind == kind {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// FilterByPeriod keeps the files of one period label
func FilterByPeriod(files []FileInfo, period string) []FileInfo {
	var filtered []FileInfo
	for _, f := range files {
		if f.Period == period {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
