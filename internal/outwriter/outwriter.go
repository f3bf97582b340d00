// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteFixes prints a fixes report using the configured output format.
func (ow *OutWriter) WriteFixes(result schema.FixesResult, cfg *contract.Config) error {
	return WriteFixesResult(result, cfg)
}

// WriteWho prints ranked contributors using the configured output format.
func (ow *OutWriter) WriteWho(people []schema.Person, cfg *contract.Config) error {
	return WriteWhoResult(people, cfg)
}
