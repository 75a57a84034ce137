package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jcpsimmons/teachat/pkg/app"
	"github.com/jcpsimmons/teachat/pkg/config"
	"github.com/jcpsimmons/teachat/pkg/database"
	"github.com/jcpsimmons/teachat/pkg/logging"
	"github.com/jcpsimmons/teachat/pkg/server"
	"github.com/jcpsimmons/teachat/pkg/store"
)

var (
	configFile string
	verbose    bool

	cfg          *config.GlobalConfig
	flushLogging func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "teachat",
		Short: "Classify dislalia errors in Portuguese sentences",
		Long: `TEAChat classifies omission, substitution and addition errors in Portuguese
sentences. Similar examples are retrieved from a spreadsheet seeded into a local
vector store and sent to a hosted model together with the sentence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, err := logging.New(cfg.Log.Level, verbose)
			if err != nil {
				return err
			}
			flushLogging = logging.Install(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if flushLogging != nil {
				flushLogging()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(createSeedCommand())
	rootCmd.AddCommand(createServeCommand())
	rootCmd.AddCommand(createClassifyCommand())
	rootCmd.AddCommand(createExamplesCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func createSeedCommand() *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the example spreadsheet into the vector store",
		Long:  "Create the example collection from the spreadsheet, embedding every input. An existing collection is reused untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath != "" {
				cfg.Dataset.Path = datasetPath
			}
			if errs := cfg.ValidateSeeding(); len(errs) > 0 {
				return fmt.Errorf("invalid config: %w", errors.Join(errs...))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := seed(ctx, a)
			if err != nil {
				return err
			}

			fmt.Printf("Collection %q %s with %d examples: %s\n",
				a.Store.Collection().Name, result, len(a.Store.Examples()), a.DB.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "file", "f", "", "Example spreadsheet (.xlsx or .csv), overrides dataset.path")

	return cmd
}

func createServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat web widget",
		Long:  "Seed the store if needed, then serve the chat page and its JSON API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid config: %w", errors.Join(errs...))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := seed(ctx, a); err != nil {
				return err
			}

			return server.New(a.Sessions).ListenAndServe(ctx, cfg.Server.Port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port, overrides server.port")

	return cmd
}

func createClassifyCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "classify <sentence>",
		Short: "Classify one sentence and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q (use json or yaml)", output)
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid config: %w", errors.Join(errs...))
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := seed(ctx, a); err != nil {
				return err
			}

			outcome, err := a.Pipeline.Run(ctx, args[0])
			if err != nil {
				return err
			}

			return printPayload(os.Stdout, output, outcome.Payload())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")

	return cmd
}

func createExamplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List the examples stored in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.OpenExistingDB(cfg.Store.Driver, cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			collection, err := db.FindCollection(ctx, cfg.Store.Collection)
			if err != nil {
				return err
			}
			if collection == nil {
				return fmt.Errorf("collection %q has not been seeded; run 'teachat seed' first", cfg.Store.Collection)
			}

			examples, err := db.GetExamples(ctx, collection.ID)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetTitle(fmt.Sprintf("%s (%s)", collection.Name, collection.EmbeddingModel))
			t.AppendHeader(table.Row{"#", "Input", "Correction"})
			for _, e := range examples {
				t.AppendRow(table.Row{e.RowIndex, e.Input, e.Correction})
			}
			t.AppendFooter(table.Row{"", "Total", len(examples)})
			t.Render()
			return nil
		},
	}

	return cmd
}

func openApp(ctx context.Context, seedOnly bool) (*app.App, error) {
	bar := newProgress()
	return app.Open(ctx, cfg, app.Options{
		SeedOnly: seedOnly,
		Progress: bar.update,
	})
}

func seed(ctx context.Context, a *app.App) (store.InitResult, error) {
	result, err := a.Seed(ctx)
	if err != nil {
		zap.L().Error("Failed to seed store", zap.Error(err))
		return 0, err
	}
	return result, nil
}

// progress lazily creates a bar on the first callback, since the total is
// only known once the dataset has been read.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress() *progress {
	return &progress{}
}

func (p *progress) update(completed, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Embeddings"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		)
	}
	_ = p.bar.Set(completed)
}

func printPayload(w io.Writer, format string, payload any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(payload)
	}
}
