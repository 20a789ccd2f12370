package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerMatch fila del libro de compras que resuelve factura y destino de una remisión.
type LedgerMatch struct {
	Invoice       string
	DestinationID string
}

// CreditNoteRecord registro listo para persistir en la tabla de notas de crédito del proveedor.
// Solo existe si el libro de compras devolvió al menos una fila.
type CreditNoteRecord struct {
	VendorID         int             `json:"vendor_id"`
	StationID        int             `json:"station_id"`
	Date             time.Time       `json:"date"`
	ProductName      string          `json:"product_name"`
	Remision         string          `json:"remision"`
	Invoice          string          `json:"invoice"`
	CreditNoteNumber string          `json:"credit_note_number"`
	TarTad           string          `json:"tar_tad"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	DestinationName  string          `json:"destination_name"`
	FiscalFolio      string          `json:"fiscal_folio"`

	// Relation no se persiste; se conserva para diagnóstico y para la consulta de replay.
	Relation string `json:"relation,omitempty"`
}

// NewCreditNoteRecord combina el documento, la fila del libro y el contexto del operador.
func NewCreditNoteRecord(doc *FiscalDocument, match LedgerMatch, vendorID, stationID int) *CreditNoteRecord {
	return &CreditNoteRecord{
		VendorID:         vendorID,
		StationID:        stationID,
		Date:             doc.Date,
		ProductName:      doc.ProductName,
		Remision:         doc.Remision,
		Invoice:          match.Invoice,
		CreditNoteNumber: doc.CreditNoteNumber,
		TarTad:           doc.Tad,
		Tax:              doc.Tax,
		Total:            doc.Total,
		DestinationName:  match.DestinationID,
		FiscalFolio:      doc.FiscalFolio,
		Relation:         doc.Relation,
	}
}
