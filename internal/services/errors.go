package services

import "errors"

// Report service errors
var (
	ErrNoRecordSource = errors.New("no record source configured")
	ErrMissingUserID  = errors.New("user id is required")
	ErrUnknownFormat  = errors.New("unknown artifact format")
)
