package domain

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrUnknownField     = errors.New("unknown selection field")
	ErrNoResult         = errors.New("no generated portrait")
	ErrEmptyResult      = errors.New("generation returned no image")
	ErrGenerationFailed = errors.New("generation failed")
	ErrDownloadFailed   = errors.New("download failed")
)
