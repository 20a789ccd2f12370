package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ncingest/internal/domain"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo consulta el libro de compras de combustible (opr_fuelpurchase).
type LedgerRepo struct {
	q     Querier
	table string
}

// NewLedgerRepository construye el adaptador.
func NewLedgerRepository(q Querier, table string) *LedgerRepo {
	return &LedgerRepo{q: q, table: table}
}

// FindByRelationAndShipment busca por remisión (= relación del CFDI) y TAD (= referencia de embarque).
func (r *LedgerRepo) FindByRelationAndShipment(ctx context.Context, relation, shipment string) ([]entity.LedgerMatch, error) {
	query := fmt.Sprintf(`
		SELECT invoice, destination_id
		FROM %s
		WHERE remision = $1 AND tad = $2`, quoteName(r.table))
	rows, err := r.q.Query(ctx, query, relation, shipment)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger lookup: %w", domain.ErrDatabaseQuery, err)
	}
	defer rows.Close()
	var list []entity.LedgerMatch
	for rows.Next() {
		var m entity.LedgerMatch
		var invoice, dest *string
		if err := rows.Scan(&invoice, &dest); err != nil {
			return nil, fmt.Errorf("%w: scan ledger: %w", domain.ErrDatabaseQuery, err)
		}
		m.Invoice = derefStr(invoice)
		m.DestinationID = derefStr(dest)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ledger lookup: %w", domain.ErrDatabaseQuery, err)
	}
	return list, nil
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}
