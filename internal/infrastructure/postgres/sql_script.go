package postgres

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jhoicas/ncingest/internal/domain/entity"
)

// WriteInsertScript escribe el lote como script SQL con valores literales, un INSERT por chunk.
// Se usa en --dry-run para revisar o aplicar a mano lo que la corrida insertaría.
func WriteInsertScript(w io.Writer, table string, records []*entity.CreditNoteRecord, chunkSize int) error {
	if len(records) == 0 {
		return nil
	}
	if chunkSize < 1 {
		chunkSize = len(records)
	}
	for chunk := range slices.Chunk(records, chunkSize) {
		if _, err := fmt.Fprintf(w, "INSERT INTO %s (%s) VALUES\n", quoteName(table), quoteColumns(creditNoteColumns)); err != nil {
			return err
		}
		for i, r := range chunk {
			sep := ",\n"
			if i == len(chunk)-1 {
				sep = ";\n"
			}
			if _, err := io.WriteString(w, "  "+RenderValues(r)+sep); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderValues tupla literal del registro en el orden de columnas fijo:
// textos y fecha entre comillas simples, numéricos sin comillas.
func RenderValues(r *entity.CreditNoteRecord) string {
	vals := []string{
		strconv.Itoa(r.VendorID),
		strconv.Itoa(r.StationID),
		quoteLiteral(r.Date.Format("2006-01-02")),
		quoteLiteral(r.ProductName),
		quoteLiteral(r.Remision),
		quoteLiteral(r.Invoice),
		quoteLiteral(r.CreditNoteNumber),
		quoteLiteral(r.TarTad),
		r.Tax.String(),
		r.Total.String(),
		quoteLiteral(r.DestinationName),
		quoteLiteral(r.FiscalFolio),
	}
	return "(" + strings.Join(vals, ", ") + ")"
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
