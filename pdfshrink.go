/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package pdfshrink is a PDF size-reduction engine: it parses a document's
// indirect-object graph, applies a fixed sequence of rewriting passes that
// shrink the file while preserving its rendered appearance, and returns
// the new bytes together with a structured report of what every pass did.
package pdfshrink

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
	"github.com/khawkins98/pdfshrink/optimize"
)

// Options re-exports the pipeline options record.
type Options = optimize.Options

// DefaultOptions re-exports the documented defaults.
func DefaultOptions() Options { return optimize.DefaultOptions() }

// ProgressFunc re-exports the pass-boundary progress callback contract.
type ProgressFunc = optimize.ProgressFunc

// PassReport is one pass's entry in the report, in declared order.
type PassReport struct {
	Name   string
	Ms     float64
	Error  string
	Counts optimize.Counts
}

// MarshalJSON inlines the count record next to name/ms, so a pass entry
// reads {"name": ..., "ms": ..., "recompressed": 3}.
func (p PassReport) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Counts)+3)
	m["name"] = p.Name
	m["ms"] = p.Ms
	if p.Error != "" {
		m["error"] = p.Error
	} else {
		for k, v := range p.Counts {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// InspectReport pairs the before and after snapshots.
type InspectReport struct {
	Before model.Snapshot `json:"before"`
	After  model.Snapshot `json:"after"`
}

// Report describes a completed run.
type Report struct {
	InputSize       int           `json:"input_size"`
	OutputSize      int           `json:"output_size"`
	SavedBytes      int           `json:"saved_bytes"`
	SavedPercent    float64       `json:"saved_percent"`
	Traits          model.Traits  `json:"pdf_traits"`
	Passes          []PassReport  `json:"passes"`
	Inspect         InspectReport `json:"inspect"`
	SizeGuard       bool          `json:"size_guard,omitempty"`
	ContentGuard    bool          `json:"content_guard,omitempty"`
	ContentWarnings []string      `json:"content_warnings,omitempty"`
}

// Optimize runs the full pipeline over input and returns the optimized
// bytes plus the report. The returned error is non-nil only when the input
// cannot be read as an unencrypted PDF or the context is cancelled; every
// recoverable condition is reflected inside the report instead. Given the
// same input and options the output is bit-stable across runs.
func Optimize(ctx context.Context, input []byte, opts Options, progress ProgressFunc) ([]byte, Report, error) {
	var report Report
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := core.Parse(input)
	if err != nil {
		return nil, report, wrapParseError(err)
	}

	traits := model.ComputeTraits(doc)
	report.InputSize = len(input)
	report.Traits = traits
	report.Inspect.Before = model.Inspect(doc)

	results, err := optimize.NewChain().Run(ctx, doc, traits, opts, progress)
	for _, r := range results {
		pr := PassReport{Name: r.Name, Ms: r.Ms, Counts: r.Counts}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		}
		report.Passes = append(report.Passes, pr)
	}
	if err != nil {
		return nil, report, err
	}

	report.Inspect.After = model.Inspect(doc)

	if warnings := optimize.CheckContentIntegrity(doc); len(warnings) > 0 {
		report.ContentGuard = true
		report.ContentWarnings = warnings
		report.OutputSize = len(input)
		return input, report, nil
	}

	// PDF/A-1 forbids object streams; everything else gets the compact
	// cross-reference layout.
	useObjStreams := !(traits.IsPDFA && strings.HasPrefix(traits.PDFALevel, "1"))
	output, serr := doc.Serialize(core.SerializeOptions{UseObjectStreams: useObjStreams})
	if serr != nil || len(output) >= len(input) {
		report.SizeGuard = true
		report.OutputSize = len(input)
		return input, report, nil
	}

	report.OutputSize = len(output)
	report.SavedBytes = len(input) - len(output)
	report.SavedPercent = math.Round(float64(report.SavedBytes)/float64(len(input))*1000) / 10
	return output, report, nil
}
