/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/xerrors"

	"github.com/khawkins98/pdfshrink/common"
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// ProgressFunc receives pipeline progress at pass boundaries: fraction is
// in [0, 1], label names the pass about to run or just finished.
type ProgressFunc func(fraction float64, label string)

// PassResult is one pass's entry in the run report: its name, wall time,
// and either a count record or the error that failed it.
type PassResult struct {
	Name   string
	Ms     float64
	Counts Counts
	Err    error
}

// Chain is the ordered pass sequence. The order is fixed and observable in
// the report; NewChain builds it.
type Chain struct {
	passes []Pass
}

// NewChain returns the pipeline's fixed pass order.
func NewChain() *Chain {
	return &Chain{passes: []Pass{
		CompressStreams{},
		RecompressImages{},
		UnembedStandardFonts{},
		SubsetFonts{},
		CombineDuplicateStreams{},
		CombineDuplicateFonts{},
		StripMetadata{},
		RemoveUnreferenced{},
	}}
}

// Run executes every pass in order against doc. A pass that returns an
// error is recorded and the chain continues; the only way Run itself fails
// is context cancellation, checked between pass boundaries.
func (c *Chain) Run(ctx context.Context, doc *core.Document, traits model.Traits, opts Options, progress ProgressFunc) ([]PassResult, error) {
	pctx := &Context{
		Doc:     doc,
		Traits:  traits,
		Options: opts,
		Usage:   CollectFontUsage(doc),
	}
	n := float64(len(c.passes))
	results := make([]PassResult, 0, len(c.passes))
	for i, pass := range c.passes {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if progress != nil {
			progress((float64(i)+0.5)/n, pass.Name())
		}
		start := time.Now()
		counts, err := runPass(pass, pctx)
		result := PassResult{
			Name:   pass.Name(),
			Ms:     float64(time.Since(start).Microseconds()) / 1000,
			Counts: counts,
			Err:    err,
		}
		if err != nil {
			common.Log.Warning("pass %s failed: %v", pass.Name(), err)
			result.Counts = nil
		}
		results = append(results, result)
		if progress != nil {
			progress((float64(i)+1)/n, pass.Name())
		}
	}
	return results, nil
}

// runPass isolates a pass: a panic inside one becomes that pass's error
// entry instead of taking down the pipeline.
func runPass(pass Pass, pctx *Context) (counts Counts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("pass %s panicked: %v", pass.Name(), r)
		}
	}()
	return pass.Optimize(pctx)
}

// CheckContentIntegrity verifies that every page's Contents references
// still resolve to existing objects, returning a human-readable warning
// per dangling reference.
func CheckContentIntegrity(doc *core.Document) []string {
	var warnings []string
	for _, page := range model.Pages(doc) {
		for _, ref := range page.Contents {
			if _, ok := doc.Lookup(ref); !ok {
				warnings = append(warnings, fmt.Sprintf(
					"page %d: Contents reference %d %d does not resolve", page.Index, ref.Num, ref.Gen))
			}
		}
	}
	return warnings
}
