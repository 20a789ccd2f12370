package postgres

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jhoicas/ncingest/internal/domain"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/domain/repository"
	"github.com/jhoicas/ncingest/pkg/config"
)

var _ repository.CreditNoteWriter = (*BulkWriter)(nil)

// BulkWriter inserta el lote con INSERT multi-fila en chunks de hasta 1000 registros.
// Todos los chunks comparten una transacción: o se escribe el lote completo o nada.
type BulkWriter struct {
	tx        *TxRunner
	table     string
	chunkSize int
}

// NewBulkWriter construye el writer; chunkSize fuera de 1..1000 se acota a 1000.
func NewBulkWriter(db TxBeginner, table string, chunkSize int) *BulkWriter {
	if chunkSize < 1 || chunkSize > config.MaxChunkSize {
		chunkSize = config.MaxChunkSize
	}
	return &BulkWriter{tx: NewTxRunner(db), table: table, chunkSize: chunkSize}
}

func (w *BulkWriter) Strategy() string { return config.StrategyBulk }

// WriteBatch ejecuta un INSERT por chunk y hace un único commit al final.
func (w *BulkWriter) WriteBatch(ctx context.Context, records []*entity.CreditNoteRecord) (repository.BatchResult, error) {
	if len(records) == 0 {
		return repository.BatchResult{}, nil
	}
	err := w.tx.Run(ctx, func(q Querier) error {
		offset := 0
		for chunk := range slices.Chunk(records, w.chunkSize) {
			sql, args := BuildBulkInsert(w.table, chunk)
			if _, err := q.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("insert chunk %d-%d: %w", offset+1, offset+len(chunk), err)
			}
			offset += len(chunk)
		}
		return nil
	})
	if err != nil {
		return repository.BatchResult{Failed: records}, fmt.Errorf("%w: %w", domain.ErrDatabaseWrite, err)
	}
	return repository.BatchResult{Written: len(records)}, nil
}

// BuildBulkInsert arma el INSERT parametrizado ($1..$n) para un chunk.
func BuildBulkInsert(table string, records []*entity.CreditNoteRecord) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(records)*len(creditNoteColumns))

	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteName(table), quoteColumns(creditNoteColumns))
	n := 1
	for i, r := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range creditNoteColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
		args = append(args, recordValues(r)...)
	}
	return sb.String(), args
}
