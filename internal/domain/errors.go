package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotFound         = errors.New("not found")
	ErrUnavailable      = errors.New("insufficient rooms available")
	ErrPersistence      = errors.New("persistence failure")
	ErrDataIntegrity    = errors.New("data integrity violation")
)

// UnavailableError carries the room count that was actually free.
type UnavailableError struct {
	Requested int
	Available int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: requested %d, available %d", ErrUnavailable, e.Requested, e.Available)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// PersistenceError wraps a storage error verbatim.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// OverlappingRulesError names the two seasonal rules that both cover a night.
type OverlappingRulesError struct {
	HotelID int64
	First   int64
	Second  int64
	Night   string
}

func (e *OverlappingRulesError) Error() string {
	return fmt.Sprintf("%s: hotel %d seasonal rules %d and %d both cover %s",
		ErrDataIntegrity, e.HotelID, e.First, e.Second, e.Night)
}

func (e *OverlappingRulesError) Unwrap() error { return ErrDataIntegrity }
