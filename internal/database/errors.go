package database

import "fmt"

// QueryError is returned when a statement could not be executed. It carries the literal
// form of the statement so the failure can be traced in the logs.
type QueryError struct {
	Database  string
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("error executing query on %s: %v, %s", e.Database, e.Err, e.Statement)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
