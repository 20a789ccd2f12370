package ingest

import (
	"github.com/jhoicas/ncingest/internal/domain/cfdi"
	"github.com/jhoicas/ncingest/internal/domain/entity"
)

// Resultados por documento (etiqueta "outcome" de métricas y logs).
const (
	OutcomeResolved       = "resolved"
	OutcomeDuplicate      = "duplicate"
	OutcomeDuplicateInRun = "duplicate_in_run"
	OutcomeUnresolved     = "unresolved"
	OutcomeLedgerError    = "ledger_error"
	OutcomeUnreadable     = "unreadable"
)

// Summary resumen de una corrida.
type Summary struct {
	RunID      string
	Strategy   string
	DryRun     bool
	Registered int // tamaño del índice al inicio

	Files         int
	WalkErrors    int // rutas bajo la raíz que no se pudieron recorrer
	Archives      int
	ArchiveErrors int // ZIP que no abren
	EntryErrors   int // entradas o XML sueltos ilegibles
	Documents     int

	Rejected        map[cfdi.Reason]int
	Duplicates      int
	DuplicatesInRun int
	Unresolved      int
	LedgerErrors    int
	Resolved        int

	Written         int
	WriteDuplicates int
	Failed          int
	SpillPath       string

	// Records lote acumulado en orden de descubrimiento.
	Records []*entity.CreditNoteRecord
}

func newSummary(runID, strategy string, dryRun bool) *Summary {
	return &Summary{
		RunID:    runID,
		Strategy: strategy,
		DryRun:   dryRun,
		Rejected: make(map[cfdi.Reason]int),
	}
}

// RejectedTotal suma de rechazos del parser.
func (s *Summary) RejectedTotal() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}
