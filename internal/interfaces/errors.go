package interfaces

import "errors"

var (
	// ErrProjectNotFound is returned when a project id has no stored record
	ErrProjectNotFound = errors.New("project not found")
	// ErrJobNotFound is returned when a job id has no stored record
	ErrJobNotFound = errors.New("job not found")
	// ErrSourceNotFound is returned when a source id is not part of a project
	ErrSourceNotFound = errors.New("source not found")
	// ErrInvalidLocator is returned by collectors when a locator cannot be parsed
	ErrInvalidLocator = errors.New("invalid locator")
)
