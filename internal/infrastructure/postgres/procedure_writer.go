package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/ncingest/internal/domain"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/domain/repository"
	"github.com/jhoicas/ncingest/pkg/config"
)

var _ repository.CreditNoteWriter = (*ProcedureWriter)(nil)

// ProcedureWriter llama al procedimiento almacenado una vez por registro.
// Cada CALL va en autocommit: un fallo no deshace los registros anteriores.
type ProcedureWriter struct {
	q    Querier
	call string
}

// NewProcedureWriter construye el writer. q debe ser el pool (no una tx) para que cada CALL confirme.
func NewProcedureWriter(q Querier, procedure string) *ProcedureWriter {
	return &ProcedureWriter{q: q, call: BuildProcedureCall(procedure)}
}

func (w *ProcedureWriter) Strategy() string { return config.StrategyProcedure }

// WriteBatch continúa tras un fallo; los registros fallidos vuelven en Failed.
// Una violación de unicidad cuenta como duplicado, no como fallo.
func (w *ProcedureWriter) WriteBatch(ctx context.Context, records []*entity.CreditNoteRecord) (repository.BatchResult, error) {
	var res repository.BatchResult
	var errs []error
	for _, r := range records {
		if _, err := w.q.Exec(ctx, w.call, recordValues(r)...); err != nil {
			if isUniqueViolation(err) {
				res.Duplicates++
				continue
			}
			res.Failed = append(res.Failed, r)
			errs = append(errs, fmt.Errorf("%s: %w", r.CreditNoteNumber, err))
			continue
		}
		res.Written++
	}
	if len(errs) > 0 {
		return res, fmt.Errorf("%w: %w", domain.ErrDatabaseWrite, errors.Join(errs...))
	}
	return res, nil
}

// BuildProcedureCall arma "CALL proc(vendor_id => $1, ..., fiscal_folio => $12)".
func BuildProcedureCall(procedure string) string {
	params := make([]string, len(creditNoteColumns))
	for i, c := range creditNoteColumns {
		params[i] = fmt.Sprintf("%s => $%d", c, i+1)
	}
	return fmt.Sprintf("CALL %s(%s)", quoteName(procedure), strings.Join(params, ", "))
}
