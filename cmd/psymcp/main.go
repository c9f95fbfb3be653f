package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"psymcp/internal/config"
	"psymcp/internal/engine"
	"psymcp/internal/extractors/pyextractor"
	"psymcp/internal/extractors/tsextractor"
	"psymcp/internal/renderers/dreamreport"
	"psymcp/internal/server"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "psymcp",
		Short: "Symbolic structural analysis of codebases",
		Long: "psymcp reads a codebase the way an analyst reads a dream: it extracts\n" +
			"structural facts (naming patterns, guard clauses, error handling,\n" +
			"nesting) and interprets them as archetypes, motifs, and tensions.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(verbose)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}

			cfg, err = config.Load(cfgPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					cfg = config.Default()
					return nil
				}
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "psymcp.yaml", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(analyzeCmd())
	root.AddCommand(serveCmd())
	return root
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [repo]",
		Short: "Analyze a repository and write the interpretation artifacts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := cfg.Repo
			if len(args) == 1 {
				repoPath = args[0]
			}
			absRepo, err := filepath.Abs(repoPath)
			if err != nil {
				return fmt.Errorf("resolving repo path: %w", err)
			}

			eng := newEngine()
			result, err := eng.Analyze(cmd.Context(), absRepo)
			if err != nil {
				return err
			}
			if err := eng.WriteArtifacts(absRepo); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "\nReading complete:\n")
			fmt.Fprintf(os.Stderr, "  Repository:  %s\n", result.Meta.RepoPath)
			fmt.Fprintf(os.Stderr, "  Files:       %d analyzed, %d skipped\n", result.Meta.FilesAnalyzed, result.Meta.FilesSkipped)
			fmt.Fprintf(os.Stderr, "  Archetypes:  %d\n", result.Meta.ArchetypeCount)
			fmt.Fprintf(os.Stderr, "  Motifs:      %d\n", result.Meta.MotifCount)
			fmt.Fprintf(os.Stderr, "  Tensions:    %d\n", result.Meta.TensionCount)
			fmt.Fprintf(os.Stderr, "  Duration:    %s\n", result.Meta.Duration)
			fmt.Fprintf(os.Stderr, "  Output:      %s\n", filepath.Join(absRepo, cfg.Output.Dir))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := newEngine()
			srv, err := server.New(eng, cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}
}

func newEngine() *engine.Engine {
	eng := engine.New(cfg, logger)
	eng.RegisterExtractor(pyextractor.New())
	eng.RegisterExtractor(tsextractor.New())
	eng.RegisterRenderer(dreamreport.New())
	return eng
}

// newLogger builds a stderr-only logger. Stdout stays reserved for the
// MCP JSON-RPC stream.
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}
