package ingest

import "github.com/jhoicas/ncingest/internal/domain/entity"

// DocumentParser convierte un XML crudo en FiscalDocument o devuelve un rechazo (*cfdi.Rejection).
type DocumentParser interface {
	Parse(raw []byte) (*entity.FiscalDocument, error)
}

// Spiller destino de los registros que no se pudieron escribir.
type Spiller interface {
	Write(records []*entity.CreditNoteRecord) error
	Path() string
}

// MetricsRecorder contadores de la corrida. Puede ser nil.
type MetricsRecorder interface {
	Document(outcome string)
	Written(strategy string, written, failed int)
}

type nopMetrics struct{}

func (nopMetrics) Document(string)          {}
func (nopMetrics) Written(string, int, int) {}
