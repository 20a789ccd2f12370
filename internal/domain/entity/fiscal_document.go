package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TipoComprobanteEgreso código CFDI del comprobante de egreso (nota de crédito).
const TipoComprobanteEgreso = "E"

// FiscalDocument campos de negocio extraídos de un CFDI de egreso.
// Es efímero: lo produce el parser y lo consume el filtro de inmediato.
type FiscalDocument struct {
	Type             string          // TipoDeComprobante
	Date             time.Time       // Fecha truncada a día
	Total            decimal.Decimal // Total del comprobante
	Tax              decimal.Decimal // Importe del Traslado
	Series           string
	Folio            string
	CreditNoteNumber string // Serie + "-" + Folio
	ProductName      string // Descripcion del último Concepto
	Remision         string // dígitos finales de NREMISION
	Tad              string // dígitos después de "RC-" en NREMISION
	Relation         string // dígitos finales de A_RELACION
	FiscalFolio      string // UUID del TimbreFiscalDigital
}

// CreditNoteNumberOf arma el identificador natural de la nota de crédito.
func CreditNoteNumberOf(series, folio string) string {
	return series + "-" + folio
}
