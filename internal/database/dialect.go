package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Statement is a query ready to be sent with bound arguments. Literal is the same call with
// the arguments written inline, used when logging.
type Statement struct {
	Query   string
	Args    []any
	Literal string
}

func (s Statement) String() string {
	if s.Literal != "" {
		return s.Literal
	}
	return s.Query
}

// Raw wraps a query that takes no arguments
func Raw(query string) Statement {
	return Statement{Query: query, Literal: query}
}

// Dialect renders stored procedure and scalar function calls for a database engine
type Dialect struct {
	Name        string
	placeholder func(i int) string
	exec        string // Procedure without a result set, formatted with name and arguments
	query       string // Procedure returning rows
	scalar      string // Scalar function, formatted with name, arguments and alias
}

var (
	SQLServer = Dialect{
		Name:        "sqlserver",
		placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
		exec:        "EXEC %s %s",
		query:       "EXEC %s %s",
		scalar:      "SELECT dbo.%s(%s) AS %s",
	}

	Postgres = Dialect{
		Name:        "postgres",
		placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
		exec:        "CALL %s(%s)",
		query:       "SELECT * FROM %s(%s)",
		scalar:      "SELECT %s(%s) AS %s",
	}
)

// DialectFor returns the dialect of a database/sql driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "pgx", "postgres":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("no stored procedure dialect for driver '%s'", driver)
	}
}

// Exec renders a call to a procedure that returns no rows
func (d Dialect) Exec(procedure string, args ...any) Statement {
	return d.render(d.exec, procedure, args)
}

// Query renders a call to a procedure that returns rows
func (d Dialect) Query(procedure string, args ...any) Statement {
	return d.render(d.query, procedure, args)
}

// Scalar renders a select of a single scalar function value under alias
func (d Dialect) Scalar(function, alias string, args ...any) Statement {
	placeholders, literals := d.arguments(args)
	return Statement{
		Query:   fmt.Sprintf(d.scalar, function, placeholders, alias),
		Args:    args,
		Literal: fmt.Sprintf(d.scalar, function, literals, alias),
	}
}

func (d Dialect) render(format, name string, args []any) Statement {
	placeholders, literals := d.arguments(args)
	return Statement{
		Query:   strings.TrimSpace(fmt.Sprintf(format, name, placeholders)),
		Args:    args,
		Literal: strings.TrimSpace(fmt.Sprintf(format, name, literals)),
	}
}

func (d Dialect) arguments(args []any) (placeholders string, literals string) {
	ps := make([]string, len(args))
	ls := make([]string, len(args))
	for i, arg := range args {
		ps[i] = d.placeholder(i + 1)
		ls[i] = Literal(arg)
	}
	return strings.Join(ps, ", "), strings.Join(ls, ", ")
}

// Literal writes a value the way it would appear inline in a SQL statement. Single quotes in
// strings are doubled.
func Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return "'" + v.Format(time.DateOnly) + "'"
	case fmt.Stringer:
		return Literal(v.String())
	default:
		return Literal(fmt.Sprint(v))
	}
}
