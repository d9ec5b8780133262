/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package optimize implements the eight rewriting passes and the chain
// that runs them in their fixed order. Each pass mutates the shared object
// arena in place and returns a count record for the run report.
package optimize

import (
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// Options is the single options record handed to the pipeline; each pass
// reads only the fields it understands.
type Options struct {
	// Lossy gates image recompression on.
	Lossy bool
	// ImageQuality is the JPEG quality in (0, 1] applied when Lossy.
	ImageQuality float64
	// MaxImageDPI caps effective image resolution when Lossy; zero means
	// no downsampling.
	MaxImageDPI int
	// UnembedStandardFonts enables dropping embedded programs of the 14
	// standard faces.
	UnembedStandardFonts bool
	// SubsetFonts enables font-program subsetting.
	SubsetFonts bool
}

// DefaultOptions returns the documented defaults: lossless, quality 0.85,
// unembedding and subsetting on.
func DefaultOptions() Options {
	return Options{
		ImageQuality:         0.85,
		UnembedStandardFonts: true,
		SubsetFonts:          true,
	}
}

// Counts is a pass's named count record.
type Counts map[string]int

// Context carries everything a pass may read: the arena it mutates, the
// read-only traits record computed at load, the options, and the per-font
// usage gathered from the page content streams.
type Context struct {
	Doc     *core.Document
	Traits  model.Traits
	Options Options
	Usage   []FontUsage
}

// Pass is one rewriting step. Optimize mutates ctx.Doc in place; a
// returned error marks the pass failed in the report without stopping the
// chain.
type Pass interface {
	Name() string
	Optimize(ctx *Context) (Counts, error)
}
