package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
)

// statement records one ExecContext or QueryContext call.
type statement struct {
	query string
	args  []any
}

// fakeResult implements sql.Result with a fixed affected-row count.
type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

// recordingDBTX implements store.DBTX, recording every statement and
// returning scripted results. QueryRowContext is unsupported; tests cover
// the Exec paths and use fake scanners for row parsing.
type recordingDBTX struct {
	statements []statement

	execErr  error
	queryErr error
	affected int64
}

func (m *recordingDBTX) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	m.statements = append(m.statements, statement{query: query, args: args})
	if m.execErr != nil {
		return nil, m.execErr
	}
	return fakeResult{affected: m.affected}, nil
}

func (m *recordingDBTX) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	m.statements = append(m.statements, statement{query: query, args: args})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return nil, fmt.Errorf("recordingDBTX: row queries are not scripted")
}

func (m *recordingDBTX) QueryRowContext(_ context.Context, _ string, _ ...any) *sql.Row {
	panic("recordingDBTX: QueryRowContext is not supported")
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// placeholderCount returns the highest positional placeholder in query, so
// tests can hold statement arity against the argument list.
func placeholderCount(query string) int {
	max := 0
	for _, match := range placeholderPattern.FindAllStringSubmatch(query, -1) {
		n, err := strconv.Atoi(match[1])
		if err == nil && n > max {
			max = n
		}
	}
	return max
}

// fakeScanner feeds a fixed value list to the scan helpers.
type fakeScanner struct {
	values []any
}

func (f *fakeScanner) Scan(dest ...any) error {
	if len(dest) != len(f.values) {
		return fmt.Errorf("fakeScanner: %d destinations for %d values", len(dest), len(f.values))
	}
	for i, value := range f.values {
		target := reflect.ValueOf(dest[i]).Elem()
		if value == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		src := reflect.ValueOf(value)
		if !src.Type().AssignableTo(target.Type()) {
			if !src.Type().ConvertibleTo(target.Type()) {
				return fmt.Errorf("fakeScanner: cannot assign %T to %s", value, target.Type())
			}
			src = src.Convert(target.Type())
		}
		target.Set(src)
	}
	return nil
}
