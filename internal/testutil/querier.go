// Package testutil holds test doubles shared by the packages that talk to the database
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"panelsync/internal/database"
)

// MockQuerier is a testify mock of database.Querier. Expectations are usually set on the
// rendered query, e.g.
//
//	q.On("QueryRows", mock.Anything, "SGTAMProd", mock.MatchedBy(testutil.QueryIs("EXEC SP_LogAdd @p1, @p2, @p3")))
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) QueryTable(ctx context.Context, db string, stmt database.Statement) (*database.Table, error) {
	args := m.Called(ctx, db, stmt)
	table, _ := args.Get(0).(*database.Table)
	return table, args.Error(1)
}

func (m *MockQuerier) QueryRows(ctx context.Context, db string, stmt database.Statement) ([]database.Row, error) {
	args := m.Called(ctx, db, stmt)
	rows, _ := args.Get(0).([]database.Row)
	return rows, args.Error(1)
}

func (m *MockQuerier) Exec(ctx context.Context, db string, stmt database.Statement) error {
	args := m.Called(ctx, db, stmt)
	return args.Error(0)
}

// QueryIs matches a statement by its rendered query
func QueryIs(query string) func(database.Statement) bool {
	return func(stmt database.Statement) bool {
		return stmt.Query == query
	}
}

// FirstArgIs matches a statement by its query and first bound argument
func FirstArgIs(query string, arg any) func(database.Statement) bool {
	return func(stmt database.Statement) bool {
		return stmt.Query == query && len(stmt.Args) > 0 && stmt.Args[0] == arg
	}
}

// Rows builds result rows sharing the same columns
func Rows(columns []string, values ...[]any) []database.Row {
	rows := make([]database.Row, 0, len(values))
	for _, v := range values {
		rows = append(rows, database.NewRow(columns, v))
	}
	return rows
}
