package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

// This file contains the models backing the `tLog` run-log table

// StatusFlag is the status code of a run-log entry. The logging store owns the meaning of
// each code, so the values are compared as opaque codes.
type StatusFlag int

const (
	StatusNoRecord StatusFlag = -1 // No entry found for the task as at the reference date
	StatusSuccess  StatusFlag = 1  // Set on insert, and used by jobs that finish cleanly
	StatusFailed   StatusFlag = 2  // Used by jobs that ran into an error
)

// ValidStatusFlags is the full domain of status codes known to the logging store
var ValidStatusFlags = []StatusFlag{-1, 1, 2, 3}

// IsValid checks that the status is part of ValidStatusFlags
func (s StatusFlag) IsValid() bool {
	for _, v := range ValidStatusFlags {
		if s == v {
			return true
		}
	}
	return false
}

// RunLogRecord is one execution attempt of a scheduled task, stored in `tLog`. A field is
// "present" when its Valid flag is set, whatever its value.
type RunLogRecord struct {
	LogTaskID  null.Int      `db:"logTaskID"`  // Task definition the run belongs to
	LogID      uuid.NullUUID `db:"logID"`      // Generated by SP_LogAdd, required for updates
	StatusFlag null.Int      `db:"statusFlag"` // Latest status of the run
	LogMsg     null.String   `db:"logMsg"`     // Free text message
}

// NewRunLogRecord creates a record with every input present and no LogID
func NewRunLogRecord(logTaskID int, status StatusFlag, msg string) RunLogRecord {
	return RunLogRecord{
		LogTaskID:  null.IntFrom(int64(logTaskID)),
		StatusFlag: null.IntFrom(int64(status)),
		LogMsg:     null.StringFrom(msg),
	}
}

// Status returns the status flag of the record
func (r *RunLogRecord) Status() StatusFlag {
	return StatusFlag(r.StatusFlag.Int64)
}

// SetStatus sets both the status and the message of the record
func (r *RunLogRecord) SetStatus(status StatusFlag, msg string) {
	r.StatusFlag = null.IntFrom(int64(status))
	r.LogMsg = null.StringFrom(msg)
}

// ValidateInsert checks the fields needed by SP_LogAdd. LogID is an output of the insert
// and is not looked at.
func (r *RunLogRecord) ValidateInsert() error {
	return errors.Join(r.missingInputs()...)
}

// ValidateUpdate checks the fields needed by SP_LogUpd
func (r *RunLogRecord) ValidateUpdate() error {
	errs := r.missingInputs()
	if !r.LogID.Valid {
		errs = append(errs, &ValidationError{Field: "logID", Msg: "logID is blank"})
	}
	return errors.Join(errs...)
}

func (r *RunLogRecord) missingInputs() []error {
	var errs []error
	if !r.LogTaskID.Valid {
		errs = append(errs, &ValidationError{Field: "logTaskID", Msg: "logTaskID not found"})
	}
	if !r.StatusFlag.Valid {
		errs = append(errs, &ValidationError{Field: "statusFlag", Msg: "statusFlag not found"})
	}
	if !r.LogMsg.Valid {
		errs = append(errs, &ValidationError{Field: "logMsg", Msg: "logMsg not found"})
	}
	return errs
}

// ValidationError is raised when an input is missing or out of its domain. These are found
// before any statement is sent to the database.
type ValidationError struct {
	Entry string // Named entry the field belongs to, if any
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s in %s", e.Msg, e.Entry)
	}
	return e.Msg
}
