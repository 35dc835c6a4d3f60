package discovery

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSource marks a failure to list plant ids.
	ErrDataSource = errors.New("data source unavailable")
	// ErrNoResult is returned when no pass has committed a result yet.
	ErrNoResult = errors.New("no discovery result available")
	// ErrUnknownRoom is returned for a room id absent from the current result.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrUnknownPlant is returned for a plant id absent from the current result.
	ErrUnknownPlant = errors.New("unknown plant")
)

// DataSourceError wraps the listing failure that aborted a pass.
type DataSourceError struct {
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDataSource, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }

// PlantFetchError records a single failed plant fetch. It is logged and counted,
// never returned from a pass.
type PlantFetchError struct {
	PlantID string
	Err     error
}

func (e *PlantFetchError) Error() string {
	return fmt.Sprintf("fetch plant %s: %v", e.PlantID, e.Err)
}

func (e *PlantFetchError) Unwrap() error { return e.Err }
