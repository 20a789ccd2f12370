package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ncingest/internal/infrastructure/spill"
)

func newReplayCmd(logLevel *string) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "replay <archivo.jsonl>",
		Short: "Reintenta la escritura de un archivo de derrame",
		Long: `Lee los registros que una corrida anterior no pudo escribir y los escribe con la
estrategia configurada, omitiendo los que ya aparezcan en la tabla destino.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			records, err := spill.ReadAll(args[0])
			if err != nil {
				return err
			}
			a, err := bootstrap(ctx, overrides{logLevel: *logLevel, strategy: strategy})
			if err != nil {
				return err
			}
			a.log.Info().Str("file", args[0]).Int("records", len(records)).Msg("replay de archivo de derrame")

			summary, runErr := a.service(false).Replay(ctx, a.runID, records)
			a.finish(summary, runErr)
			return runErr
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "bulk | procedure (sobrescribe INGEST_STRATEGY)")
	return cmd
}
