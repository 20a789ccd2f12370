package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ncingest/internal/domain"
	"github.com/jhoicas/ncingest/internal/domain/repository"
)

var _ repository.RegisteredCreditNoteReader = (*CreditNoteRepo)(nil)

// CreditNoteRepo lectura de la tabla destino de notas de crédito.
type CreditNoteRepo struct {
	q     Querier
	table string
}

// NewCreditNoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditNoteRepository(q Querier, table string) *CreditNoteRepo {
	return &CreditNoteRepo{q: q, table: table}
}

// ListCreditNoteNumbers devuelve los CreditNoteNumber distintos ya registrados.
func (r *CreditNoteRepo) ListCreditNoteNumbers(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT credit_note_number
		FROM %s
		WHERE credit_note_number IS NOT NULL`, quoteName(r.table))
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list credit notes: %w", domain.ErrDatabaseQuery, err)
	}
	defer rows.Close()
	var list []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("%w: scan credit note: %w", domain.ErrDatabaseQuery, err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list credit notes: %w", domain.ErrDatabaseQuery, err)
	}
	return list, nil
}
