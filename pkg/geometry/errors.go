package geometry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilCell is returned when a nil cell is added to or removed from a
	// universe.
	ErrNilCell = errors.New("geometry: cell is nil")

	// ErrDuplicateID is returned when an explicit id is already taken.
	ErrDuplicateID = errors.New("geometry: id already in use")

	// ErrInvalidID is returned for negative ids.
	ErrInvalidID = errors.New("geometry: id must be positive")

	// ErrNoRoot is returned when a model without a root universe is used.
	ErrNoRoot = errors.New("geometry: model has no root universe")

	// ErrNotFinalized is returned by Locate before Finalize has succeeded.
	ErrNotFinalized = errors.New("geometry: model is not finalized")

	// ErrPointNotFound is returned by Locate when no cell contains the
	// point.
	ErrPointNotFound = errors.New("geometry: no cell contains point")

	// ErrNoInstanceData is returned when an instance number is needed but
	// the model was finalized in instances-only mode.
	ErrNoInstanceData = errors.New("geometry: no instance path data")

	// ErrDistribMaterialIndex is returned when a distributed-material cell
	// has more instances than materials.
	ErrDistribMaterialIndex = errors.New("geometry: distributed material index out of range")

	// ErrMissingVolume is wrapped by MissingVolumeError.
	ErrMissingVolume = errors.New("geometry: volume information is missing")

	// ErrVolumeNotFound is returned when a volume result has no entry for a
	// universe.
	ErrVolumeNotFound = errors.New("geometry: no volume information found for universe")
)

// CycleError reports a universe that contains itself. Chain lists the
// universe ids along the offending path; the first and last entries are the
// same universe.
type CycleError struct {
	Chain []int
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		parts[i] = fmt.Sprintf("u%d", id)
	}
	return "geometry: universe cycle " + strings.Join(parts, " -> ")
}

// MissingVolumeError is returned when nuclide densities are requested from
// a universe that has no volume information attached.
type MissingVolumeError struct {
	UniverseID int
}

func (e *MissingVolumeError) Error() string {
	return fmt.Sprintf("geometry: volume information is needed to calculate nuclide densities "+
		"for universe %d; run a stochastic volume calculation and add its results", e.UniverseID)
}

func (e *MissingVolumeError) Unwrap() error {
	return ErrMissingVolume
}
