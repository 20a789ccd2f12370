package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ncingest/internal/application/ingest"
	"github.com/jhoicas/ncingest/internal/domain/cfdi"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	infracfdi "github.com/jhoicas/ncingest/internal/infrastructure/cfdi"
)

type harness struct {
	store   *fakeStore
	ledger  *fakeLedger
	writer  *fakeWriter
	spill   *fakeSpill
	metrics *fakeMetrics
}

func newHarness() *harness {
	store := &fakeStore{numbers: []string{"OLD-1"}}
	return &harness{
		store: store,
		ledger: &fakeLedger{rows: map[string][]entity.LedgerMatch{
			"74708|629": {{Invoice: "NCP-1377", DestinationID: "Destino-206 E04055"}},
			"100|1":     {{Invoice: "F-100", DestinationID: "D-1"}},
			"200|2":     {{Invoice: "F-200", DestinationID: "D-2"}},
		}},
		writer:  &fakeWriter{store: store},
		spill:   &fakeSpill{},
		metrics: &fakeMetrics{},
	}
}

func (h *harness) service(root string, parser ingest.DocumentParser, opts ingest.Options) *ingest.Service {
	opts.RootPath = root
	if opts.VendorID == 0 {
		opts.VendorID, opts.StationID = 1, 44
	}
	return ingest.NewService(ingest.Deps{
		Parser:     parser,
		Registered: h.store,
		Ledger:     h.ledger,
		Writer:     h.writer,
		Spill:      h.spill,
		Metrics:    h.metrics,
	}, opts)
}

// mixedTree dos ZIP y un XML suelto con todos los resultados posibles.
func mixedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "2024", "a.zip"), [][2]string{
		{"A-1.xml", "A-1|100|1"},
		{"ingreso.xml", "reject:wrong_type"},
		{"roto.XML", "reject:malformed_xml"},
		{"leeme.txt", "A-9|100|1"},
	})
	writeZip(t, filepath.Join(root, "2024", "b.zip"), [][2]string{
		{"A-1-copia.xml", "A-1|100|1"},
		{"B-2.xml", "B-2|200|2"},
		{"sin-libro.xml", "C-3|300|3"},
		{"ya.xml", "OLD-1|100|1"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "suelto.xml"), []byte("D-4|100|1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "corrupto.zip"), []byte("no es zip"), 0o644))
	return root
}

func TestRun_ResultadosPorDocumento(t *testing.T) {
	h := newHarness()
	root := mixedTree(t)

	summary, err := h.service(root, fakeParser{}, ingest.Options{IncludeLooseXML: true}).Run(t.Context(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Registered)
	assert.Equal(t, 3, summary.Archives)
	assert.Equal(t, 1, summary.ArchiveErrors)
	assert.Equal(t, 8, summary.Documents, "el .txt dentro del ZIP no cuenta")
	assert.Equal(t, 1, summary.Rejected[cfdi.ReasonWrongType])
	assert.Equal(t, 1, summary.Rejected[cfdi.ReasonMalformedXML])
	assert.Equal(t, 2, summary.RejectedTotal())
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 1, summary.DuplicatesInRun)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Equal(t, 3, summary.Resolved)
	assert.Equal(t, 3, summary.Written)

	require.Len(t, h.writer.batches, 1)
	var numbers []string
	for _, r := range h.writer.batches[0] {
		numbers = append(numbers, r.CreditNoteNumber)
	}
	assert.Equal(t, []string{"A-1", "B-2", "D-4"}, numbers, "primero los ZIP, luego los XML sueltos")

	assert.Equal(t, 3, h.metrics.outcomes[ingest.OutcomeResolved])
	assert.Equal(t, 1, h.metrics.outcomes[ingest.OutcomeUnresolved])
	assert.Equal(t, 1, h.metrics.outcomes[string(cfdi.ReasonWrongType)])
	assert.Equal(t, 3, h.metrics.written)
	assert.Empty(t, h.spill.records)
}

func TestRun_SinXMLSueltos(t *testing.T) {
	h := newHarness()
	summary, err := h.service(mixedTree(t), fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Documents)
	assert.Equal(t, 2, summary.Written)
}

// Segunda corrida sobre la misma entrada: todo está en el índice, nada nuevo que escribir.
func TestRun_Idempotente(t *testing.T) {
	h := newHarness()
	root := mixedTree(t)
	svc := h.service(root, fakeParser{}, ingest.Options{IncludeLooseXML: true})

	first, err := svc.Run(t.Context(), "run-1")
	require.NoError(t, err)
	require.Equal(t, 3, first.Written)

	second, err := svc.Run(t.Context(), "run-2")
	require.NoError(t, err)
	assert.Zero(t, second.Resolved)
	assert.Zero(t, second.Written)
	assert.Equal(t, 5, second.Duplicates)
	assert.Len(t, h.writer.batches, 1, "sin registros nuevos no se llama al escritor")
}

func TestRun_SinFilasEnLibroNoEscribe(t *testing.T) {
	h := newHarness()
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "x.zip"), [][2]string{{"n.xml", "C-3|300|3"}})

	summary, err := h.service(root, fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Empty(t, summary.Records)
	assert.Empty(t, h.writer.batches)
}

func TestRun_ErrorDeLibroNoAbortaLaCorrida(t *testing.T) {
	h := newHarness()
	h.ledger.err = errBoom
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "x.zip"), [][2]string{
		{"1.xml", "A-1|100|1"},
		{"2.xml", "B-2|200|2"},
	})

	summary, err := h.service(root, fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LedgerErrors)
	assert.Equal(t, 2, h.ledger.calls)
	assert.Zero(t, summary.Resolved)
}

// Una entrada corrupta cuenta como documento ilegible; sus hermanas del mismo ZIP se procesan.
func TestRun_EntradaCorruptaNoDescartaElZip(t *testing.T) {
	h := newHarness()
	root := t.TempDir()
	writeZipWithCorruptEntry(t, filepath.Join(root, "lote.zip"), [][2]string{
		{"A-1.xml", "A-1|100|1"},
		{"B-2.xml", "B-2|200|2"},
	}, "roto.xml")

	summary, err := h.service(root, fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Zero(t, summary.ArchiveErrors)
	assert.Equal(t, 1, summary.EntryErrors)
	assert.Equal(t, 3, summary.Documents)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 1, h.metrics.outcomes[ingest.OutcomeUnreadable])
}

// Un subdirectorio ilegible se registra y la corrida sigue con el resto del árbol.
func TestRun_SubdirectorioIlegibleNoAborta(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignora los permisos de directorio")
	}
	h := newHarness()
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "a.zip"), [][2]string{{"A-1.xml", "A-1|100|1"}})
	writeZip(t, filepath.Join(root, "privado", "b.zip"), [][2]string{{"B-2.xml", "B-2|200|2"}})
	locked := filepath.Join(root, "privado")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	summary, err := h.service(root, fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.WalkErrors)
	assert.Equal(t, 1, summary.Written)
}

func TestRun_FalloDeIndiceEsFatal(t *testing.T) {
	h := newHarness()
	h.store.listErr = errBoom
	root := mixedTree(t)

	_, err := h.service(root, fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, h.ledger.calls)
	assert.Empty(t, h.writer.batches)
}

func TestRun_RaizInexistente(t *testing.T) {
	h := newHarness()
	_, err := h.service(filepath.Join(t.TempDir(), "no-existe"), fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.Error(t, err)
}

func TestRun_FalloDeEscrituraVaADerrame(t *testing.T) {
	h := newHarness()
	h.writer.err = errBoom
	root := mixedTree(t)

	summary, err := h.service(root, fakeParser{}, ingest.Options{IncludeLooseXML: true}).Run(t.Context(), "run-1")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, summary.Failed)
	assert.Zero(t, summary.Written)
	assert.Equal(t, "spill/run.jsonl", summary.SpillPath)
	assert.Len(t, h.spill.records, 3)
	assert.Equal(t, 3, h.metrics.failed)
}

func TestRun_FalloDeDerrameSeReporta(t *testing.T) {
	h := newHarness()
	h.writer.err = errBoom
	spillErr := os.ErrPermission
	h.spill.err = spillErr
	root := mixedTree(t)

	summary, err := h.service(root, fakeParser{}, ingest.Options{}).Run(t.Context(), "run-1")
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, spillErr)
	assert.Empty(t, summary.SpillPath)
}

func TestRun_DryRunNoEscribe(t *testing.T) {
	h := newHarness()
	root := mixedTree(t)

	summary, err := h.service(root, fakeParser{}, ingest.Options{IncludeLooseXML: true, DryRun: true}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Len(t, summary.Records, 3)
	assert.Empty(t, h.writer.batches)
}

func TestReplay_OmiteLoYaRegistrado(t *testing.T) {
	h := newHarness()
	h.store.numbers = []string{"A-1"}
	records := []*entity.CreditNoteRecord{
		{CreditNoteNumber: "A-1"},
		{CreditNoteNumber: "B-2"},
		{CreditNoteNumber: "B-2"},
		{CreditNoteNumber: "C-3"},
	}

	summary, err := h.service(".", fakeParser{}, ingest.Options{}).Replay(t.Context(), "replay-1", records)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 1, summary.DuplicatesInRun)
	assert.Equal(t, 2, summary.Written)
	require.Len(t, h.writer.batches, 1)
	assert.Equal(t, "B-2", h.writer.batches[0][0].CreditNoteNumber)
	assert.Equal(t, "C-3", h.writer.batches[0][1].CreditNoteNumber)
}

// Nota de crédito mínima de punta a punta con el parser real.
const minimalCreditNote = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4"
    xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital"
    xmlns:pm="http://pemex.com/facturaelectronica/addenda/v2"
    TipoDeComprobante="E" Fecha="2025-03-14T11:42:07" Serie="NCP" Folio="1377" Total="8997.03">
  <cfdi:Conceptos><cfdi:Concepto Descripcion="BONIFICACION DIESEL"/></cfdi:Conceptos>
  <cfdi:Impuestos><cfdi:Traslados><cfdi:Traslado Importe="1240.97"/></cfdi:Traslados></cfdi:Impuestos>
  <cfdi:Complemento><tfd:TimbreFiscalDigital UUID="4B7B75EA-E368-49FD-9D5A-C9A3673D3814"/></cfdi:Complemento>
  <cfdi:Addenda><pm:Addenda>
    <pm:NREMISION>RC-629 51234</pm:NREMISION>
    <pm:A_RELACION>REL 74708</pm:A_RELACION>
  </pm:Addenda></cfdi:Addenda>
</cfdi:Comprobante>`

func TestRun_NotaMinimaConParserReal(t *testing.T) {
	h := newHarness()
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "pemex.zip"), [][2]string{
		{"NCP-1377.xml", minimalCreditNote},
		{"basura.xml", "<not valid xml"},
	})

	summary, err := h.service(root, infracfdi.NewParser(), ingest.Options{}).Run(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected[cfdi.ReasonMalformedXML])
	require.Len(t, summary.Records, 1)

	rec := summary.Records[0]
	assert.Equal(t, "NCP-1377", rec.CreditNoteNumber)
	assert.Equal(t, "629", rec.TarTad)
	assert.Equal(t, "74708", rec.Relation)
	assert.Equal(t, "51234", rec.Remision)
	assert.Equal(t, "NCP-1377", rec.Invoice)
	assert.Equal(t, "Destino-206 E04055", rec.DestinationName)
	assert.True(t, decimal.RequireFromString("1240.97").Equal(rec.Tax))
	assert.Equal(t, "4B7B75EA-E368-49FD-9D5A-C9A3673D3814", rec.FiscalFolio)
	assert.Equal(t, 1, rec.VendorID)
	assert.Equal(t, 44, rec.StationID)
}
