package repository

import (
	"context"

	"github.com/jhoicas/ncingest/internal/domain/entity"
)

// RegisteredCreditNoteReader lee los CreditNoteNumber ya presentes en la tabla destino.
type RegisteredCreditNoteReader interface {
	ListCreditNoteNumbers(ctx context.Context) ([]string, error)
}

// LedgerRepository consulta el libro de compras (remisiones de combustible).
type LedgerRepository interface {
	// FindByRelationAndShipment devuelve las filas cuya remisión coincide con la relación
	// y cuyo TAD coincide con la referencia de embarque. Slice vacío si no hay coincidencias.
	FindByRelationAndShipment(ctx context.Context, relation, shipment string) ([]entity.LedgerMatch, error)
}

// BatchResult resultado de una escritura de lote.
// Failed contiene los registros que no quedaron persistidos (para el archivo de derrame);
// Duplicates cuenta los que la BD rechazó por ya existir.
type BatchResult struct {
	Written    int
	Duplicates int
	Failed     []*entity.CreditNoteRecord
}

// CreditNoteWriter persiste un lote de notas de crédito resueltas.
type CreditNoteWriter interface {
	WriteBatch(ctx context.Context, records []*entity.CreditNoteRecord) (BatchResult, error)
	// Strategy nombre de la estrategia ("bulk" o "procedure") para logs y resumen.
	Strategy() string
}
