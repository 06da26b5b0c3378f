package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/treatmentplan-backend/internal/app"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	serve := serveCommand()
	root := &cobra.Command{
		Use:           "treatmentplan",
		Short:         "Dental treatment plan backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Bare invocation serves, as the container entrypoint expects.
		RunE: serve.RunE,
	}
	root.AddCommand(serve, migrateCommand(), exportCommand())
	return root
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- a.Run(":" + a.Cfg.Port) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.Log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return a.Shutdown(shutdownCtx)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the plan tables and indexes",
		RunE: func(*cobra.Command, []string) error {
			return app.Migrate()
		},
	}
}

func exportCommand() *cobra.Command {
	var (
		id     string
		out    string
		upload bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a saved plan to PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				return errors.New("--id is required")
			}
			exp, err := app.ExportPlan(cmd.Context(), id, upload)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = exp.FileName
			}
			if err := os.WriteFile(path, exp.PDF, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", path, len(exp.PDF))
			if exp.URL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), exp.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "document id of the saved plan")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the export file name)")
	cmd.Flags().BoolVar(&upload, "upload", false, "also publish the PDF to the exports bucket")
	return cmd
}
