package postgres_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de pgx: pool/tx que registran sentencias y filas en memoria.
// Los métodos de pgx.Tx no sobrescritos entran en pánico si se llaman.
// ──────────────────────────────────────────────────────────────────────────────

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	pgx.Tx // nil: solo se implementa lo que usan los writers

	execs     []execCall
	failExec  map[int]error // índice 1-based de Exec -> error
	failBegin error
	commits   int
	rollbacks int
	done      bool

	rows    [][]any // filas devueltas por Query
	queries []execCall
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if f.failBegin != nil {
		return nil, f.failBegin
	}
	f.done = false
	return f, nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if err, ok := f.failExec[len(f.execs)]; ok {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return &fakeRows{data: f.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("no usado")
}

func (f *fakeDB) Commit(ctx context.Context) error {
	if f.done {
		return pgx.ErrTxClosed
	}
	f.done = true
	f.commits++
	return nil
}

func (f *fakeDB) Rollback(ctx context.Context) error {
	if f.done {
		return pgx.ErrTxClosed
	}
	f.done = true
	f.rollbacks++
	return nil
}

type fakeRows struct {
	pgx.Rows
	data [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinos, %d columnas", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case **string:
			if row[i] == nil {
				*p = nil
				continue
			}
			s := row[i].(string)
			*p = &s
		default:
			return errors.New("scan: tipo no soportado")
		}
	}
	return nil
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
