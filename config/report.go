package config

import (
	"fmt"
	"slices"

	"github.com/kilianp07/energyplan/pkg/export"
)

// ReportConfig selects how the plan is rendered.
type ReportConfig struct {
	// Format is one of text, json, csv or yaml.
	Format string `json:"format"`
	// Output is the destination file; empty writes to stdout.
	Output   string `json:"output"`
	Currency string `json:"currency"`
	Unit     string `json:"unit"`
}

// SetDefaults applies sane defaults.
func (c *ReportConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = export.FormatText
	}
	if c.Currency == "" {
		c.Currency = "EUR"
	}
	if c.Unit == "" {
		c.Unit = "MW"
	}
}

// Validate checks the output format.
func (c ReportConfig) Validate() error {
	if !slices.Contains(export.Formats, c.Format) {
		return fmt.Errorf("unknown report format %s (want one of %v)", c.Format, export.Formats)
	}
	return nil
}
