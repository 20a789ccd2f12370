package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/ncingest/internal/application/ingest"
	"github.com/jhoicas/ncingest/internal/domain/repository"
	"github.com/jhoicas/ncingest/internal/infrastructure/cfdi"
	"github.com/jhoicas/ncingest/internal/infrastructure/metrics"
	"github.com/jhoicas/ncingest/internal/infrastructure/postgres"
	"github.com/jhoicas/ncingest/internal/infrastructure/spill"
	"github.com/jhoicas/ncingest/pkg/config"
	"github.com/jhoicas/ncingest/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "ncingest",
		Short:         "Ingesta de notas de crédito CFDI del proveedor hacia PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "nivel de log (sobrescribe LOG_LEVEL)")

	root.AddCommand(newRunCmd(&logLevel), newReplayCmd(&logLevel), newVersionCmd())
	return root
}

// app dependencias armadas para un comando.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	runID   string
	pool    *pgxpool.Pool
	writer  repository.CreditNoteWriter
	metrics *metrics.Recorder
	started time.Time
}

// overrides valores de flags que pisan la configuración.
type overrides struct {
	logLevel string
	rootPath string
	strategy string
}

// bootstrap carga config, logger y pool; el llamador debe invocar close.
func bootstrap(ctx context.Context, o overrides) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	if o.logLevel != "" {
		cfg.App.LogLevel = o.logLevel
	}
	if o.rootPath != "" {
		cfg.Ingest.RootPath = o.rootPath
	}
	if o.strategy != "" {
		cfg.Ingest.Strategy = o.strategy
	}
	if err := cfg.Ingest.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		runID:   uuid.NewString(),
		metrics: metrics.NewRecorder(),
		started: time.Now(),
	}
	a.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).WithStr("run_id", a.runID)
	a.log.Info().
		Str("env", cfg.App.Env).
		Str("root", cfg.Ingest.RootPath).
		Str("strategy", cfg.Ingest.Strategy).
		Msg("iniciando ingesta de notas de crédito")

	a.pool, err = postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	switch cfg.Ingest.Strategy {
	case config.StrategyProcedure:
		a.writer = postgres.NewProcedureWriter(a.pool, cfg.Ingest.Procedure)
	default:
		a.writer = postgres.NewBulkWriter(a.pool, cfg.Ingest.TargetTable, cfg.Ingest.ChunkSize)
	}
	return a, nil
}

func (a *app) service(dryRun bool) *ingest.Service {
	return ingest.NewService(ingest.Deps{
		Parser:     cfdi.NewParser(),
		Registered: postgres.NewCreditNoteRepository(a.pool, a.cfg.Ingest.TargetTable),
		Ledger:     postgres.NewLedgerRepository(a.pool, a.cfg.Ingest.LedgerTable),
		Writer:     a.writer,
		Spill:      spill.NewSink(a.cfg.Ingest.SpillDir, a.runID),
		Metrics:    a.metrics,
		Log:        a.log,
	}, ingest.Options{
		RootPath:        a.cfg.Ingest.RootPath,
		VendorID:        a.cfg.Ingest.VendorID,
		StationID:       a.cfg.Ingest.StationID,
		IncludeLooseXML: a.cfg.Ingest.IncludeLooseXML,
		DryRun:          dryRun,
	})
}

// finish registra el resumen, exporta métricas y cierra el pool.
func (a *app) finish(summary *ingest.Summary, runErr error) {
	if summary != nil {
		ev := a.log.Info()
		if runErr != nil {
			ev = a.log.Error().Err(runErr)
		}
		rejected := make(map[string]int, len(summary.Rejected))
		for reason, n := range summary.Rejected {
			rejected[string(reason)] = n
		}
		ev.Str("strategy", summary.Strategy).
			Bool("dry_run", summary.DryRun).
			Int("registered", summary.Registered).
			Int("files", summary.Files).
			Int("walk_errors", summary.WalkErrors).
			Int("archives", summary.Archives).
			Int("archive_errors", summary.ArchiveErrors).
			Int("entry_errors", summary.EntryErrors).
			Int("documents", summary.Documents).
			Int("rejected", summary.RejectedTotal()).
			Interface("rejected_by_reason", rejected).
			Int("duplicates", summary.Duplicates).
			Int("duplicates_in_run", summary.DuplicatesInRun).
			Int("unresolved", summary.Unresolved).
			Int("ledger_errors", summary.LedgerErrors).
			Int("resolved", summary.Resolved).
			Int("written", summary.Written).
			Int("write_duplicates", summary.WriteDuplicates).
			Int("failed", summary.Failed).
			Str("spill", summary.SpillPath).
			Dur("elapsed", time.Since(a.started)).
			Msg("resumen de la corrida")
	}

	now := time.Now()
	a.metrics.Finish(now.Sub(a.started), now)
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.log.Warn().Err(err).Msg("no se pudieron exportar las métricas")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
