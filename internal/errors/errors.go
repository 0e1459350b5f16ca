package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrDictionaryFull is returned when the id space for documents or tags is exhausted
	ErrDictionaryFull = errors.New("dictionary full")

	// ErrDataFileMissing is returned when the ingestion data file does not exist
	ErrDataFileMissing = errors.New("data file missing")

	// ErrCheckpointRead is returned when a checkpoint file cannot be read or decoded
	ErrCheckpointRead = errors.New("checkpoint read failed")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownOperation is returned when a query names an operation that does not exist
	ErrUnknownOperation = errors.New("unknown operation")
)

// DictionaryFullError represents an exhausted id space with context
type DictionaryFullError struct {
	Kind string // "document" or "tag"
}

func (e *DictionaryFullError) Error() string {
	return fmt.Sprintf("%s id space exhausted", e.Kind)
}

func (e *DictionaryFullError) Is(target error) bool {
	return target == ErrDictionaryFull
}

// NewDictionaryFullError creates a new DictionaryFullError
func NewDictionaryFullError(kind string) *DictionaryFullError {
	return &DictionaryFullError{Kind: kind}
}

// DataFileMissingError represents a missing ingestion source with context
type DataFileMissingError struct {
	Path string
}

func (e *DataFileMissingError) Error() string {
	return fmt.Sprintf("data file '%s' not found", e.Path)
}

func (e *DataFileMissingError) Is(target error) bool {
	return target == ErrDataFileMissing
}

// NewDataFileMissingError creates a new DataFileMissingError
func NewDataFileMissingError(path string) *DataFileMissingError {
	return &DataFileMissingError{Path: path}
}

// CheckpointError represents a failed checkpoint read with context
type CheckpointError struct {
	File string
	Err  error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("failed to load checkpoint file '%s': %v", e.File, e.Err)
}

func (e *CheckpointError) Is(target error) bool {
	return target == ErrCheckpointRead
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// NewCheckpointError creates a new CheckpointError
func NewCheckpointError(file string, err error) *CheckpointError {
	return &CheckpointError{File: file, Err: err}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// UnknownOperationError represents an unrecognized query operation with context
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation '%s' (use AND, OR, XOR, or ANDNOT)", e.Name)
}

func (e *UnknownOperationError) Is(target error) bool {
	return target == ErrUnknownOperation
}

// NewUnknownOperationError creates a new UnknownOperationError
func NewUnknownOperationError(name string) *UnknownOperationError {
	return &UnknownOperationError{Name: name}
}
