package models

import (
	"errors"
	"fmt"

	"github.com/guregu/null/v5"
)

// Dependency is an upstream task that must have logged one of AllowedStatus as at the
// reference date before the current job may proceed
type Dependency struct {
	Name          string       // Human readable task name, used in logs and errors
	LogTaskID     null.Int     // Task whose latest run-log entry is checked
	AllowedStatus []StatusFlag // Statuses treated as a pass. nil means the entry has none
}

// Validate checks that the dependency is complete and only allows known status codes
func (d *Dependency) Validate() error {
	var errs []error
	if !d.LogTaskID.Valid {
		errs = append(errs, &ValidationError{Entry: d.Name, Field: "logTaskID", Msg: "logTaskID not found"})
	}
	if d.AllowedStatus == nil {
		errs = append(errs, &ValidationError{Entry: d.Name, Field: "allowedStatus", Msg: "allowedStatus not found"})
	}

	var invalid []StatusFlag
	for _, s := range d.AllowedStatus {
		if !s.IsValid() {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		errs = append(errs, &ValidationError{
			Entry: d.Name,
			Field: "allowedStatus",
			Msg:   fmt.Sprintf("invalid allowedStatus %v, expected status in %v", invalid, ValidStatusFlags),
		})
	}

	return errors.Join(errs...)
}

// Allows checks if the status counts as a pass for this dependency
func (d *Dependency) Allows(status StatusFlag) bool {
	for _, s := range d.AllowedStatus {
		if s == status {
			return true
		}
	}
	return false
}
