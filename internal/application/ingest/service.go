// Package ingest orquesta la corrida de ingesta de notas de crédito:
//
//	Enumerar → Parsear CFDI → Filtrar duplicadas → Resolver en libro de compras → Escribir lote
//
// Todo es secuencial. Los errores por documento se registran y el documento se salta;
// solo la carga del índice de registradas y el recorrido de la raíz abortan la corrida.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jhoicas/ncingest/internal/domain"
	"github.com/jhoicas/ncingest/internal/domain/cfdi"
	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/domain/repository"
	"github.com/jhoicas/ncingest/internal/infrastructure/source"
	"github.com/jhoicas/ncingest/pkg/logger"
)

// Options parámetros de la corrida.
type Options struct {
	RootPath        string
	VendorID        int
	StationID       int
	IncludeLooseXML bool
	DryRun          bool // resuelve todo pero no escribe
}

// Deps dependencias del servicio.
type Deps struct {
	Parser     DocumentParser
	Registered repository.RegisteredCreditNoteReader
	Ledger     repository.LedgerRepository
	Writer     repository.CreditNoteWriter
	Spill      Spiller
	Metrics    MetricsRecorder // opcional
	Log        *logger.Logger
}

// Service ejecuta corridas de ingesta.
type Service struct {
	deps Deps
	opts Options
}

// NewService construye el servicio.
func NewService(deps Deps, opts Options) *Service {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &Service{deps: deps, opts: opts}
}

// run estado mutable de una corrida.
type run struct {
	summary    *Summary
	registered *entity.RegisteredSet
	seen       map[string]struct{}
	log        *logger.Logger
}

// Run ejecuta una corrida completa. Devuelve el resumen aunque haya error de escritura.
func (s *Service) Run(ctx context.Context, runID string) (*Summary, error) {
	log := s.deps.Log.WithStr("run_id", runID)
	r := &run{
		summary: newSummary(runID, s.deps.Writer.Strategy(), s.opts.DryRun),
		seen:    make(map[string]struct{}),
		log:     log,
	}

	registered, err := s.loadRegistered(ctx)
	if err != nil {
		log.Error().Err(err).Msg("no se pudo cargar el índice de notas registradas")
		return r.summary, err
	}
	r.registered = registered
	r.summary.Registered = registered.Len()
	log.Info().Int("registered", registered.Len()).Msg("índice de notas de crédito registradas cargado")

	files, skipped, err := source.Enumerate(s.opts.RootPath)
	for _, serr := range skipped {
		log.Warn().Err(serr).Msg("ruta ilegible bajo la raíz, se omite")
	}
	r.summary.WalkErrors = len(skipped)
	if err != nil {
		return r.summary, err
	}
	r.summary.Files = len(files)

	zips := source.FilterExtension(files, source.ExtZip)
	for _, path := range zips {
		if err := ctx.Err(); err != nil {
			return r.summary, err
		}
		s.processArchive(ctx, r, path)
	}
	if s.opts.IncludeLooseXML {
		for _, path := range source.FilterExtension(files, source.ExtXML) {
			if err := ctx.Err(); err != nil {
				return r.summary, err
			}
			entry, err := source.ReadFile(path)
			if err != nil {
				entry = source.Entry{Name: path, Err: err}
			}
			s.processDocument(ctx, r, path, entry)
		}
	}

	log.Info().
		Int("files", r.summary.Files).
		Int("archives", r.summary.Archives).
		Int("documents", r.summary.Documents).
		Int("resolved", r.summary.Resolved).
		Msg("documentos procesados")

	if s.opts.DryRun {
		log.Info().Int("records", len(r.summary.Records)).Msg("dry-run: no se escribe en la BD")
		return r.summary, nil
	}
	return r.summary, s.write(ctx, r.summary, r.summary.Records, log)
}

// Replay reescribe registros de un archivo de derrame. El índice de registradas se vuelve
// a cargar para no duplicar lo que otra corrida ya haya insertado.
func (s *Service) Replay(ctx context.Context, runID string, records []*entity.CreditNoteRecord) (*Summary, error) {
	log := s.deps.Log.WithStr("run_id", runID)
	summary := newSummary(runID, s.deps.Writer.Strategy(), s.opts.DryRun)

	registered, err := s.loadRegistered(ctx)
	if err != nil {
		log.Error().Err(err).Msg("no se pudo cargar el índice de notas registradas")
		return summary, err
	}
	summary.Registered = registered.Len()

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		summary.Documents++
		if registered.Contains(rec.CreditNoteNumber) {
			summary.Duplicates++
			log.Info().Str("credit_note", rec.CreditNoteNumber).Msg("nota ya registrada, se omite del replay")
			continue
		}
		if _, dup := seen[rec.CreditNoteNumber]; dup {
			summary.DuplicatesInRun++
			continue
		}
		seen[rec.CreditNoteNumber] = struct{}{}
		summary.Resolved++
		summary.Records = append(summary.Records, rec)
	}
	if s.opts.DryRun {
		return summary, nil
	}
	return summary, s.write(ctx, summary, summary.Records, log)
}

func (s *Service) loadRegistered(ctx context.Context) (*entity.RegisteredSet, error) {
	numbers, err := s.deps.Registered.ListCreditNoteNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar notas registradas: %w", err)
	}
	return entity.NewRegisteredSet(numbers), nil
}

func (s *Service) processArchive(ctx context.Context, r *run, path string) {
	r.summary.Archives++
	r.log.Debug().Str("source", path).Msg("procesando zip")
	entries, err := source.ExtractXMLEntries(path)
	if err != nil {
		r.summary.ArchiveErrors++
		r.log.Warn().Err(err).Str("source", path).Msg("zip ilegible, se omite")
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		s.processDocument(ctx, r, path, e)
	}
}

// processDocument parsea, filtra y resuelve un XML. Nunca aborta la corrida.
func (s *Service) processDocument(ctx context.Context, r *run, origin string, e source.Entry) {
	r.summary.Documents++
	entryName := e.Name
	if entryName == origin {
		entryName = filepath.Base(origin)
	}
	log := r.log.WithStr("source", origin).WithStr("entry", entryName)

	if e.Err != nil {
		r.summary.EntryErrors++
		s.deps.Metrics.Document(OutcomeUnreadable)
		log.Warn().Err(e.Err).Msg("entrada ilegible, se omite")
		return
	}

	doc, err := s.deps.Parser.Parse(e.Data)
	if err != nil {
		reason, ok := cfdi.ReasonOf(err)
		if !ok {
			reason = cfdi.ReasonMalformedXML
		}
		r.summary.Rejected[reason]++
		s.deps.Metrics.Document(string(reason))
		if reason.Expected() {
			log.Debug().Str("reason", string(reason)).Msg("comprobante no es de egreso, se omite")
		} else {
			log.Warn().Str("reason", string(reason)).Err(err).Msg("documento rechazado")
		}
		return
	}
	log = log.WithStr("credit_note", doc.CreditNoteNumber)

	if err := Filter(doc, r.registered); err != nil {
		r.summary.Duplicates++
		s.deps.Metrics.Document(OutcomeDuplicate)
		log.Info().Msg("nota de crédito ya registrada, se omite")
		return
	}
	if _, dup := r.seen[doc.CreditNoteNumber]; dup {
		r.summary.DuplicatesInRun++
		s.deps.Metrics.Document(OutcomeDuplicateInRun)
		log.Info().Msg("nota de crédito repetida en esta corrida, se omite")
		return
	}

	rec, err := Resolve(ctx, doc, s.deps.Ledger, s.opts.VendorID, s.opts.StationID)
	switch {
	case errors.Is(err, domain.ErrUnresolved):
		r.summary.Unresolved++
		s.deps.Metrics.Document(OutcomeUnresolved)
		log.Warn().Str("relation", doc.Relation).Str("shipment", doc.Tad).Msg("la remisión no devolvió un destino válido")
		return
	case err != nil:
		r.summary.LedgerErrors++
		s.deps.Metrics.Document(OutcomeLedgerError)
		log.Error().Err(err).Str("relation", doc.Relation).Msg("error consultando el libro de compras")
		return
	}

	r.seen[doc.CreditNoteNumber] = struct{}{}
	r.summary.Resolved++
	r.summary.Records = append(r.summary.Records, rec)
	s.deps.Metrics.Document(OutcomeResolved)
	log.Info().
		Str("relation", doc.Relation).
		Str("shipment", doc.Tad).
		Str("invoice", rec.Invoice).
		Str("destination", rec.DestinationName).
		Msg("nota de crédito resuelta")
}

// write persiste el lote y manda a derrame lo que no quedó escrito.
func (s *Service) write(ctx context.Context, summary *Summary, records []*entity.CreditNoteRecord, log *logger.Logger) error {
	if len(records) == 0 {
		log.Info().Str("strategy", summary.Strategy).Msg("sin notas de crédito nuevas")
		return nil
	}
	res, werr := s.deps.Writer.WriteBatch(ctx, records)
	summary.Written = res.Written
	summary.WriteDuplicates = res.Duplicates
	summary.Failed = len(res.Failed)
	s.deps.Metrics.Written(summary.Strategy, res.Written, len(res.Failed))

	if len(res.Failed) > 0 {
		if err := s.deps.Spill.Write(res.Failed); err != nil {
			log.Error().Err(err).Int("records", len(res.Failed)).Msg("no se pudo escribir el archivo de derrame")
			werr = errors.Join(werr, err)
		} else {
			summary.SpillPath = s.deps.Spill.Path()
			log.Warn().Str("spill", summary.SpillPath).Int("records", len(res.Failed)).Msg("lote no escrito enviado a derrame")
		}
	}

	if werr != nil {
		log.Error().Err(werr).
			Str("strategy", summary.Strategy).
			Int("written", res.Written).
			Int("failed", len(res.Failed)).
			Msg("error escribiendo el lote")
		return werr
	}
	log.Info().
		Str("strategy", summary.Strategy).
		Int("written", res.Written).
		Int("duplicates", res.Duplicates).
		Msg("lote escrito")
	return nil
}
