package postgres

import "github.com/jhoicas/ncingest/internal/domain/entity"

// creditNoteColumns orden fijo de columnas de la tabla destino; los parámetros del
// procedimiento usan los mismos nombres.
var creditNoteColumns = []string{
	"vendor_id",
	"station_id",
	"date",
	"product_name",
	"remision",
	"invoice",
	"credit_note_number",
	"tar_tad",
	"tax",
	"total",
	"destination_name",
	"fiscal_folio",
}

// recordValues valores del registro en el orden de creditNoteColumns.
func recordValues(r *entity.CreditNoteRecord) []any {
	return []any{
		r.VendorID,
		r.StationID,
		r.Date,
		r.ProductName,
		r.Remision,
		r.Invoice,
		r.CreditNoteNumber,
		r.TarTad,
		r.Tax,
		r.Total,
		r.DestinationName,
		r.FiscalFolio,
	}
}
