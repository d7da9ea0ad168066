package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name string
	// placeholder renders the i-th (1-based) bind parameter.
	placeholder func(i int) string
	// generateIDs fills a missing "id" on insert; hosted Postgres has a
	// column default for it.
	generateIDs bool
	// touchUpdated sets updated_at on update for tables that carry it;
	// hosted Postgres does this with a trigger.
	touchUpdated bool
}

var sqliteDialect = dialect{
	name:         "sqlite",
	placeholder:  func(int) string { return "?" },
	generateIDs:  true,
	touchUpdated: true,
}

// updatedAtTables carry an updated_at column.
var updatedAtTables = map[string]bool{
	TableIdentities: true,
}

// timestampLayout matches the SQLite schema's created_at default.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// now is replaced in tests.
var now = time.Now

var postgresDialect = dialect{
	name:        "postgres",
	placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
}

// jsonColumns are stored as JSON text and decoded on read.
var jsonColumns = map[string]bool{
	"metadata": true,
}

// SQLClient implements Client over database/sql.
type SQLClient struct {
	db      *sql.DB
	dialect dialect
}

// Close closes the database connection.
func (s *SQLClient) Close() error {
	return s.db.Close()
}

// DB exposes the handle for seeding and maintenance.
func (s *SQLClient) DB() *sql.DB {
	return s.db
}

// Select runs SELECT * with equality filters, ordering and limit.
func (s *SQLClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	stmt, args := s.selectStatement(table, q)
	rows, err := s.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	if q.Single && len(rows) != 1 {
		return nil, singleRowError(len(rows))
	}
	return rows, nil
}

func (s *SQLClient) selectStatement(table string, q Query) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", quoteIdent(table))
	where, args := s.where(q.Filters, 1)
	b.WriteString(where)
	if q.Order != nil {
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", quoteIdent(q.Order.Column), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args
}

// Insert adds one row and returns it as stored.
func (s *SQLClient) Insert(ctx context.Context, table string, values Row) ([]Row, error) {
	if s.dialect.generateIDs {
		if _, ok := values["id"]; !ok {
			values = withValue(values, "id", uuid.New().String())
		}
	}
	cols := sortedKeys(values)
	if len(cols) == 0 {
		return nil, &Error{Message: "empty insert payload"}
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		marks[i] = s.dialect.placeholder(i + 1)
		v, err := bindValue(values[col])
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", table, col, err)
		}
		args[i] = v
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	rows, err := s.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return rows, nil
}

// Update sets the given columns on every row matching filters.
func (s *SQLClient) Update(ctx context.Context, table string, values Row, filters []Filter) ([]Row, error) {
	stmt, args, err := s.updateStatement(table, values, filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	return rows, nil
}

// updateStatement numbers the SET placeholders first, then the filters.
func (s *SQLClient) updateStatement(table string, values Row, filters []Filter) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, &Error{Message: "empty update payload"}
	}
	if s.dialect.touchUpdated && updatedAtTables[table] {
		if _, ok := values["updated_at"]; !ok {
			values = withValue(values, "updated_at", now().UTC().Format(timestampLayout))
		}
	}
	cols := sortedKeys(values)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, col := range cols {
		sets[i] = quoteIdent(col) + " = " + s.dialect.placeholder(i+1)
		v, err := bindValue(values[col])
		if err != nil {
			return "", nil, fmt.Errorf("encode %s.%s: %w", table, col, err)
		}
		args = append(args, v)
	}
	where, whereArgs := s.where(filters, len(cols)+1)
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", quoteIdent(table), strings.Join(sets, ", "), where)
	return stmt, args, nil
}

func (s *SQLClient) where(filters []Filter, start int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	clauses := make([]string, len(filters))
	args := make([]any, len(filters))
	for i, f := range filters {
		clauses[i] = quoteIdent(f.Column) + " = " + s.dialect.placeholder(start+i)
		args[i] = f.Value
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// query runs a statement and scans every row into a Row keyed by column.
func (s *SQLClient) query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = readValue(col, vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// bindValue turns nested JSON values into text the driver can bind.
func bindValue(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any, Row:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func readValue(col string, v any) any {
	switch val := v.(type) {
	case []byte:
		return decodeJSONColumn(col, string(val))
	case string:
		return decodeJSONColumn(col, val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func decodeJSONColumn(col, text string) any {
	if !jsonColumns[col] {
		return text
	}
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return text
	}
	return decoded
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withValue(r Row, key string, value any) Row {
	out := make(Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[key] = value
	return out
}
