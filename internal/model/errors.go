package model

import "errors"

var (
	// ErrRetrieval marks an embedding or vector index failure
	ErrRetrieval = errors.New("retrieval failed")

	// ErrFilterService marks a failed or unparseable justification call
	ErrFilterService = errors.New("filter service failed")

	// ErrVerdictParse marks gap analysis output that did not parse
	ErrVerdictParse = errors.New("verdict parse failed")

	// ErrExtraction marks a chunk whose quote extraction failed after retries
	ErrExtraction = errors.New("quote extraction failed")

	// ErrFileFailure marks an unrecoverable error processing one file
	ErrFileFailure = errors.New("file processing failed")

	// ErrNoServices is returned when no external services are configured
	ErrNoServices = errors.New("no external services configured")

	// ErrInvalidAssumptions is returned for a malformed assumption list
	ErrInvalidAssumptions = errors.New("invalid assumptions")
)
