package services

import "errors"

// Report service errors
var (
	ErrNoRunAvailable = errors.New("no pipeline run available")
	ErrRunInProgress  = errors.New("pipeline run already in progress")
)
