package ingest

import (
	"context"
	"fmt"

	"github.com/jhoicas/ncingest/internal/domain"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/domain/repository"
)

// Filter descarta la nota si su CreditNoteNumber ya está en el índice de registradas.
// Devuelve domain.ErrDuplicate sin importar el resto de los campos.
func Filter(doc *entity.FiscalDocument, registered *entity.RegisteredSet) error {
	if registered.Contains(doc.CreditNoteNumber) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, doc.CreditNoteNumber)
	}
	return nil
}

// Resolve busca factura y destino en el libro de compras por relación + TAD y arma el registro
// con la primera fila. Sin filas devuelve domain.ErrUnresolved; nunca un registro con vacíos.
func Resolve(
	ctx context.Context,
	doc *entity.FiscalDocument,
	ledger repository.LedgerRepository,
	vendorID, stationID int,
) (*entity.CreditNoteRecord, error) {
	matches, err := ledger.FindByRelationAndShipment(ctx, doc.Relation, doc.Tad)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: relación %s, remisión %s", domain.ErrUnresolved, doc.Relation, doc.Tad)
	}
	return entity.NewCreditNoteRecord(doc, matches[0], vendorID, stationID), nil
}
