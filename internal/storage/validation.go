package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stocktake-app/stocktake/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidEntry = errors.New("invalid scanned entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSnapshot ensures a snapshot is structurally sound before it
// replaces the persisted state.
func validateSnapshot(snapshot *model.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	for _, e := range snapshot.Entries {
		if e.ID <= 0 || e.Quantity <= 0 || e.Code == "" {
			return fmt.Errorf("%w: id=%d code=%q quantity=%d", ErrInvalidEntry, e.ID, e.Code, e.Quantity)
		}
	}
	return nil
}
