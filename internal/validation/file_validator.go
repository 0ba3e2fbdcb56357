package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "salespulse/internal/errors"
)

// Supported input table formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// FileValidator provides common file validation functions for all executables
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputTable checks that path names a readable CSV or XLSX file and
// returns its format. Missing or unreadable files yield an INPUT_NOT_FOUND error
// naming source.
func (v *FileValidator) ValidateInputTable(source, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Input table not found",
			slog.String("source", source),
			slog.String("file", path),
			slog.String("error", err.Error()))
		return "", apperrors.NewInputNotFoundError(source, err).WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("source", source),
			slog.String("path", path))
		return "", apperrors.NewInputNotFoundError(source, fmt.Errorf("%s is a directory", path)).WithContext("path", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewInputNotFoundError(source, err).WithContext("path", path)
	}
	file.Close()

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return "", apperrors.NewParsingError(fmt.Sprintf("%s is a temporary Excel lock file", path), nil).
			WithContext("source", source)
	}

	format, err := DetectFormat(path)
	if err != nil {
		v.logger.Error("Unsupported input format",
			slog.String("source", source),
			slog.String("file", path))
		return "", err
	}

	v.logger.Debug("Input table validated",
		slog.String("source", source),
		slog.String("file", path),
		slog.String("format", format),
		slog.Int64("size", info.Size()))
	return format, nil
}

// DetectFormat maps a file extension to a table format
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", apperrors.NewParsingError(fmt.Sprintf("unsupported table format %q", filepath.Ext(path)), nil).
			WithContext("path", path)
	}
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
