package service

import "errors"

var (
	// ErrValidation marks a request missing a required field or carrying a malformed one.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned when the registration key does not match.
	ErrUnauthorized = errors.New("unauthorized sensor registration")
	// ErrUnknownSensor is returned when a measurement references no registered sensor.
	ErrUnknownSensor = errors.New("sensor id not recognized")
	// ErrInvalidRange is returned when a filter window starts after it ends.
	ErrInvalidRange = errors.New("start after end")
	// ErrNotFound is returned when a query matches nothing.
	ErrNotFound = errors.New("not found")
)
