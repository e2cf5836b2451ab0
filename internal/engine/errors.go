package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/stageledger/internal/ledger"
)

// RuntimeError represents an error detected by the engine.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Stage is the stage being synchronized or edited.
	Stage ledger.Stage

	// RecordID identifies the affected record, if any.
	RecordID string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoPriorStage indicates synchronization of the mapping stage.
	ErrCodeNoPriorStage RuntimeErrorCode = "NO_PRIOR_STAGE"

	// ErrCodeUnknownStage indicates a stage outside the workflow.
	ErrCodeUnknownStage RuntimeErrorCode = "UNKNOWN_STAGE"

	// ErrCodeStageMismatch indicates a prior ledger from the wrong stage.
	ErrCodeStageMismatch RuntimeErrorCode = "STAGE_MISMATCH"

	// ErrCodeInvalidMode indicates an unknown synchronization mode.
	ErrCodeInvalidMode RuntimeErrorCode = "INVALID_MODE"

	// ErrCodeRecordNotFound indicates an edit of a record that does not exist.
	ErrCodeRecordNotFound RuntimeErrorCode = "RECORD_NOT_FOUND"

	// ErrCodeInheritedRecord indicates removal of an inherited record.
	ErrCodeInheritedRecord RuntimeErrorCode = "INHERITED_RECORD"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s: %s (stage=%s, record=%s)", e.Code, e.Message, e.Stage, e.RecordID)
	}
	return fmt.Sprintf("%s: %s (stage=%s)", e.Code, e.Message, e.Stage)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsInheritedRecordError reports whether err rejected removal of an inherited record.
func IsInheritedRecordError(err error) bool {
	return hasCode(err, ErrCodeInheritedRecord)
}

// IsNotFoundError reports whether err refers to a missing record.
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeRecordNotFound)
}

// IsNoPriorStageError reports whether err rejected synchronizing the mapping stage.
func IsNoPriorStageError(err error) bool {
	return hasCode(err, ErrCodeNoPriorStage)
}

func newStageError(code RuntimeErrorCode, stage ledger.Stage, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

func newRecordError(code RuntimeErrorCode, stage ledger.Stage, id, message string) *RuntimeError {
	return &RuntimeError{Code: code, Stage: stage, RecordID: id, Message: message}
}
