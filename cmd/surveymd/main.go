package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gubarz/surveymd/internal/config"
	"github.com/gubarz/surveymd/internal/logging"
	"github.com/gubarz/surveymd/internal/parser"
	"github.com/gubarz/surveymd/internal/reconcile"
	"github.com/gubarz/surveymd/internal/survey"
)

var version = "0.1.0"

// logger is configured by initConfig
var logger = logging.Discard()

var rootCmd = &cobra.Command{
	Use:   "surveymd",
	Short: "Markdown survey definitions",
	Long: `Compile surveys written in markdown into a structured definition and back.

Check and format survey files, export them as JSON or YAML, merge one
survey into another and pick the questions a consumer includes.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(checkCmd, fmtCmd, exportCmd, attributionCmd, mergeCmd, selectCmd, effectiveCmd, watchCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().Bool("strict", false, "Treat warnings as errors")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}

	l, err := logging.New(logging.Config{
		Level:  config.GetLogLevel(),
		Format: config.GetLogFormat(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		return
	}
	logger = l
}

// newParser returns a parser configured from config
func newParser() *parser.Parser {
	return parser.NewParser(
		parser.WithLogger(logger),
		parser.WithIDPrefixes(config.GetGroupIDPrefix(), config.GetQuestionIDPrefix()),
		parser.WithStrict(config.GetStrict()),
	)
}

// newReconciler returns a reconciler configured from config
func newReconciler() *reconcile.Reconciler {
	return reconcile.NewReconciler(
		reconcile.WithLogger(logger),
		reconcile.WithIDPrefixes(config.GetGroupIDPrefix(), config.GetQuestionIDPrefix()),
	)
}

// loadDocument parses path and reports its warnings on stderr
func loadDocument(path string) (*survey.Document, error) {
	res, err := newParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	printWarnings(os.Stderr, path, res.Warnings)
	return res.Document, nil
}

func printWarnings(w io.Writer, path string, warnings []survey.Diagnostic) {
	for _, d := range warnings {
		fmt.Fprintf(w, "%s: %s\n", path, d)
		logger.Debug("diagnostic", slog.String("path", path), slog.String("kind", string(d.Kind)), slog.Int("line", d.Line))
	}
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
