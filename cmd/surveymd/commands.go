package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gubarz/surveymd/internal/config"
	"github.com/gubarz/surveymd/internal/export"
	"github.com/gubarz/surveymd/internal/output"
	"github.com/gubarz/surveymd/internal/parser"
	"github.com/gubarz/surveymd/internal/reconcile"
	"github.com/gubarz/surveymd/internal/serializer"
	"github.com/gubarz/surveymd/internal/survey"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Parse survey files and report errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt FILE",
	Short: "Print a survey file in canonical form",
	Long: `Parses a survey file and prints it in canonical form: identifiers on
every heading, normalized options, conditions and follow-up markers.

With -w the file is rewritten in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Dump the parsed survey as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var attributionCmd = &cobra.Command{
	Use:   "attribution FILE",
	Short: "Print the attribution block of a survey file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttribution,
}

var mergeCmd = &cobra.Command{
	Use:   "merge TARGET INCOMING...",
	Short: "Append surveys to a target, renaming colliding identifiers",
	Long: `Merges each INCOMING survey into TARGET in order. Identifiers that
already exist in the target are replaced by fresh ones and branch
conditions are rewritten to follow them. The rename table is printed on
stderr.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	fmtCmd.Flags().BoolP("write", "w", false, "Write result to the source file instead of output")
	fmtCmd.Flags().BoolP("check", "c", false, "Exit non-zero if the file is not in canonical form")
	fmtCmd.Flags().StringP("output", "o", "", "Output mode: print, copy")

	exportCmd.Flags().StringP("format", "f", "json", "Export format: json, yaml")

	attributionCmd.Flags().StringP("output", "o", "", "Output mode: print, copy")

	mergeCmd.Flags().BoolP("write", "w", false, "Write result to TARGET instead of output")
	mergeCmd.Flags().StringP("output", "o", "", "Output mode: print, copy")
}

// outputFlag applies a command's -o flag to config
func outputFlag(cmd *cobra.Command) {
	if o, _ := cmd.Flags().GetString("output"); o != "" {
		config.SetOutput(o)
	}
}

// ============================================================================
// check
// ============================================================================

func runCheck(cmd *cobra.Command, args []string) error {
	p := newParser()
	failed := 0
	for _, path := range args {
		if err := checkFile(cmd.OutOrStdout(), cmd.ErrOrStderr(), p, path); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
	}
	return nil
}

// checkFile parses one file and prints a summary or the error
func checkFile(out, errOut io.Writer, p *parser.Parser, path string) error {
	res, err := p.ParseFile(path)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}
	printWarnings(errOut, path, res.Warnings)

	questions := 0
	res.Document.Walk(func(_ *survey.Group, _ *survey.Question, _ *survey.Question, _ int) bool {
		questions++
		return true
	})
	fmt.Fprintf(out, "%s: ok (%d groups, %d questions, %d warnings)\n",
		path, len(res.Document.Groups), questions, len(res.Warnings))
	return nil
}

// ============================================================================
// fmt
// ============================================================================

func runFmt(cmd *cobra.Command, args []string) error {
	outputFlag(cmd)
	path := args[0]

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	text, err := serializer.Serialize(doc)
	if err != nil {
		return err
	}

	if check, _ := cmd.Flags().GetBool("check"); check {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(src) != text {
			return fmt.Errorf("%s is not in canonical form", path)
		}
		return nil
	}

	if write, _ := cmd.Flags().GetBool("write"); write {
		return output.WriteFile(path, text)
	}
	return output.NewSink().WithStdout(cmd.OutOrStdout()).Output(text)
}

// ============================================================================
// export
// ============================================================================

func runExport(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	return export.Encode(cmd.OutOrStdout(), doc, format)
}

// ============================================================================
// attribution
// ============================================================================

func runAttribution(cmd *cobra.Command, args []string) error {
	outputFlag(cmd)
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	attr, diags := parser.ExtractAttributionText(string(data))
	printWarnings(cmd.ErrOrStderr(), path, diags)
	if attr == nil {
		return fmt.Errorf("%s: no attribution block", path)
	}

	lines, err := serializer.AttributionBlock(attr)
	if err != nil {
		return err
	}
	text := strings.Join(lines, "\n") + "\n"
	return output.NewSink().WithStdout(cmd.OutOrStdout()).Output(text)
}

// ============================================================================
// merge
// ============================================================================

func runMerge(cmd *cobra.Command, args []string) error {
	outputFlag(cmd)
	targetPath := args[0]

	target, err := loadDocument(targetPath)
	if err != nil {
		return err
	}

	t := reconcile.NewTarget(target, newReconciler())
	for _, path := range args[1:] {
		incoming, err := loadDocument(path)
		if err != nil {
			return err
		}
		renames, err := t.Merge(incoming)
		if err != nil {
			return fmt.Errorf("merging %s: %w", path, err)
		}
		for _, rn := range renames {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: renamed %s %s -> %s\n", path, rn.Kind, rn.From, rn.To)
		}
	}

	text, err := serializer.Serialize(t.Document())
	if err != nil {
		return err
	}
	if write, _ := cmd.Flags().GetBool("write"); write {
		return output.WriteFile(targetPath, text)
	}
	return output.NewSink().WithStdout(cmd.OutOrStdout()).Output(text)
}
