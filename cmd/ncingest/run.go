package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ncingest/internal/domain/entity"
	"github.com/jhoicas/ncingest/internal/infrastructure/postgres"
)

func newRunCmd(logLevel *string) *cobra.Command {
	var (
		rootPath  string
		strategy  string
		dryRun    bool
		scriptOut string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Procesa la carpeta del proveedor y escribe las notas de crédito nuevas",
		Long: `Recorre la carpeta raíz, abre cada ZIP (y los XML sueltos), parsea los CFDI de egreso,
descarta las notas ya registradas, resuelve factura y destino en el libro de compras
y escribe el lote con la estrategia configurada.

Con --dry-run no se escribe nada: se imprime el script INSERT equivalente.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIngest(ctx, overrides{logLevel: *logLevel, rootPath: rootPath, strategy: strategy}, dryRun, scriptOut, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&rootPath, "root", "", "carpeta raíz (sobrescribe INGEST_ROOT_PATH)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "bulk | procedure (sobrescribe INGEST_STRATEGY)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolver sin escribir en la BD")
	cmd.Flags().StringVar(&scriptOut, "script-out", "", "archivo para el script SQL del dry-run (por defecto stdout)")
	return cmd
}

func runIngest(ctx context.Context, o overrides, dryRun bool, scriptOut string, stdout io.Writer) error {
	a, err := bootstrap(ctx, o)
	if err != nil {
		return err
	}

	summary, runErr := a.service(dryRun).Run(ctx, a.runID)
	if runErr == nil && dryRun {
		runErr = writeScript(a.cfg.Ingest.TargetTable, a.cfg.Ingest.ChunkSize, summary.Records, scriptOut, stdout)
	}
	a.finish(summary, runErr)
	return runErr
}

func writeScript(table string, chunkSize int, records []*entity.CreditNoteRecord, path string, stdout io.Writer) (err error) {
	w := stdout
	if path != "" {
		f, ferr := os.Create(path)
		if ferr != nil {
			return fmt.Errorf("script: crear %s: %w", path, ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	if err := postgres.WriteInsertScript(w, table, records, chunkSize); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}
