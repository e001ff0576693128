// Package shared holds helpers used by more than one package's tests.
//
// The testutil subpackage captures slog records so tests can assert on what
// was logged, e.g. that secrets only appear masked.
package shared
