// Package shared holds helpers used by more than one package. Its testutil
// subpackage captures slog output so tests can assert on log lines.
package shared
