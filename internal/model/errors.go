package model

import "errors"

// Validation failures. All are recoverable by the caller.
var (
	ErrInsufficientEnergy      = errors.New("insufficient energy")
	ErrInvalidEnergyAmount     = errors.New("invalid energy amount")
	ErrInvalidExperienceAmount = errors.New("invalid experience amount")
	ErrInvalidChakraCategory   = errors.New("invalid chakra category")
	ErrDuplicateEngagement     = errors.New("duplicate engagement")
	ErrInvalidEngagementType   = errors.New("invalid engagement type")
	ErrInvalidPostType         = errors.New("invalid post type")
	ErrInactiveUser            = errors.New("user is not active")
	ErrNotFound                = errors.New("not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInconsistentTally       = errors.New("inconsistent engagement tally")
)
