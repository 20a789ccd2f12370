package ingest_test

import (
	"archive/zip"
	"context"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ncingest/internal/domain/cfdi"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/domain/repository"
)

// fakeParser interpreta el contenido como "SERIE-FOLIO|relación|tad" o "reject:<motivo>".
type fakeParser struct{}

func (fakeParser) Parse(raw []byte) (*entity.FiscalDocument, error) {
	s := strings.TrimSpace(string(raw))
	if reason, ok := strings.CutPrefix(s, "reject:"); ok {
		return nil, cfdi.Reject(cfdi.Reason(reason), nil)
	}
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return nil, cfdi.Rejectf(cfdi.ReasonMalformedXML, "contenido %q", s)
	}
	series, folio, _ := strings.Cut(parts[0], "-")
	return &entity.FiscalDocument{
		Type:             entity.TipoComprobanteEgreso,
		Date:             time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Total:            decimal.RequireFromString("8996.03"),
		Tax:              decimal.RequireFromString("1240.97"),
		Series:           series,
		Folio:            folio,
		CreditNoteNumber: parts[0],
		ProductName:      "DIESEL",
		Remision:         parts[2],
		Tad:              parts[2],
		Relation:         parts[1],
		FiscalFolio:      "UUID-" + parts[0],
	}, nil
}

// fakeStore hace de tabla destino: lo escrito aparece en las siguientes cargas del índice.
type fakeStore struct {
	numbers []string
	listErr error
}

func (s *fakeStore) ListCreditNoteNumbers(context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.numbers...), nil
}

type fakeLedger struct {
	rows  map[string][]entity.LedgerMatch // clave relación|tad
	err   error
	calls int
}

func (l *fakeLedger) FindByRelationAndShipment(_ context.Context, relation, shipment string) ([]entity.LedgerMatch, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.rows[relation+"|"+shipment], nil
}

type fakeWriter struct {
	store   *fakeStore
	err     error
	batches [][]*entity.CreditNoteRecord
}

func (w *fakeWriter) Strategy() string { return "bulk" }

func (w *fakeWriter) WriteBatch(_ context.Context, records []*entity.CreditNoteRecord) (repository.BatchResult, error) {
	w.batches = append(w.batches, records)
	if w.err != nil {
		return repository.BatchResult{Failed: records}, w.err
	}
	for _, r := range records {
		w.store.numbers = append(w.store.numbers, r.CreditNoteNumber)
	}
	return repository.BatchResult{Written: len(records)}, nil
}

type fakeSpill struct {
	records []*entity.CreditNoteRecord
	err     error
}

func (s *fakeSpill) Write(records []*entity.CreditNoteRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *fakeSpill) Path() string { return "spill/run.jsonl" }

type fakeMetrics struct {
	outcomes map[string]int
	written  int
	failed   int
}

func (m *fakeMetrics) Document(outcome string) {
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func (m *fakeMetrics) Written(_ string, written, failed int) {
	m.written += written
	m.failed += failed
}

var errBoom = errors.New("boom")

// writeZip crea un ZIP con las entradas dadas (nombre -> contenido).
func writeZip(t *testing.T, path string, entries [][2]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

// writeZipWithCorruptEntry crea un ZIP con las entradas dadas más una entrada almacenada con CRC32 incorrecto.
func writeZipWithCorruptEntry(t *testing.T, path string, entries [][2]string, corruptName string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	body := []byte("X-9|100|1")
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               corruptName,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(body) ^ 0xFFFFFFFF,
		CompressedSize64:   uint64(len(body)),
		UncompressedSize64: uint64(len(body)),
	})
	require.NoError(t, err)
	_, err = w.Write(body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}
