// Package errs defines the sentinel errors shared across harmc packages.
//
// Errors that indicate a misconfigured run (shape mismatches, bad masks) are
// surfaced before any Monte Carlo trial executes. Callers match them with
// errors.Is; call sites add context with fmt.Errorf and %w.
package errs

import "errors"

var (
	// ErrEmptyDataset indicates a dataset with no matchup records.
	ErrEmptyDataset = errors.New("dataset has no matchup records")

	// ErrShapeMismatch indicates misaligned lengths between variable columns,
	// uncertainty columns, or the scanline index.
	ErrShapeMismatch = errors.New("mismatched array shapes")

	// ErrMaskLength indicates a fix-mask whose length does not match the
	// coefficient or variable count it constrains.
	ErrMaskLength = errors.New("fix-mask length mismatch")

	// ErrNegativeUncertainty indicates a declared uncertainty below zero.
	ErrNegativeUncertainty = errors.New("negative uncertainty magnitude")

	// ErrModelDimension indicates a measurement-equation model whose declared
	// variable count does not match the dataset.
	ErrModelDimension = errors.New("model dimension mismatch")

	// ErrNoTrials indicates an aggregation over an empty trial set.
	ErrNoTrials = errors.New("no trials to aggregate")

	// ErrTableFormat indicates a malformed persisted trial table.
	ErrTableFormat = errors.New("malformed trial-result table")

	// ErrTableIncomplete indicates a trial table holding fewer rows than its
	// header declares. The rows that are present are still returned.
	ErrTableIncomplete = errors.New("incomplete trial-result table")
)
