package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gubarz/surveymd/internal/export"
	"github.com/gubarz/surveymd/internal/overlay"
	"github.com/gubarz/surveymd/internal/serializer"
	"github.com/gubarz/surveymd/internal/survey"
	"github.com/gubarz/surveymd/internal/ui"
)

var selectCmd = &cobra.Command{
	Use:   "select FILE",
	Short: "Choose which questions a consumer includes",
	Long: `Opens an interactive checklist of every question in FILE and saves
the chosen set to the overlay file. The survey itself is never changed.

With --include or --exclude the overlay is edited without the checklist.
A new overlay file starts with every question included.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

var effectiveCmd = &cobra.Command{
	Use:   "effective FILE",
	Short: "Print the survey as a consumer sees it through an overlay",
	Args:  cobra.ExactArgs(1),
	RunE:  runEffective,
}

func init() {
	selectCmd.Flags().String("overlay", "", "Overlay file (default: FILE with .overlay.yaml suffix)")
	selectCmd.Flags().StringSlice("include", nil, "Question identifiers to include")
	selectCmd.Flags().StringSlice("exclude", nil, "Question identifiers to exclude")

	effectiveCmd.Flags().String("overlay", "", "Overlay file (default: FILE with .overlay.yaml suffix)")
	effectiveCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json, yaml")
}

// overlayPath returns the --overlay flag or the default next to the survey
func overlayPath(cmd *cobra.Command, surveyPath string) string {
	if p, _ := cmd.Flags().GetString("overlay"); p != "" {
		return p
	}
	return surveyPath + ".overlay.yaml"
}

// loadOverlay reads the overlay file for doc. A missing file yields an
// overlay with every question included and no consumer yet.
func loadOverlay(path string, doc *survey.Document) (*overlay.Overlay, string, error) {
	f, err := overlay.Load(path)
	if err != nil {
		return nil, "", err
	}
	if f == nil {
		ov, err := overlay.New(doc)
		return ov, "", err
	}
	ov, err := f.Apply(doc)
	if err != nil {
		return nil, "", fmt.Errorf("overlay %s: %w", path, err)
	}
	return ov, f.Consumer, nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	path := overlayPath(cmd, args[0])
	ov, consumer, err := loadOverlay(path, doc)
	if err != nil {
		return err
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	if len(include) > 0 || len(exclude) > 0 {
		for _, id := range include {
			if err := ov.SetIncluded(id, true); err != nil {
				return err
			}
		}
		for _, id := range exclude {
			if err := ov.SetIncluded(id, false); err != nil {
				return err
			}
		}
	} else {
		edited, saved, err := ui.Run(doc, ov)
		if err != nil {
			return err
		}
		if !saved {
			return nil
		}
		ov = edited
	}

	snap := overlay.Snapshot(doc, ov, consumer)
	if err := overlay.Save(path, snap); err != nil {
		return err
	}
	logger.Info("overlay saved",
		slog.String("path", path),
		slog.String("consumer", snap.Consumer),
		slog.Int("included", len(snap.Included)))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d questions included\n", path, len(snap.Included), ov.Len())
	return nil
}

func runEffective(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	ov, _, err := loadOverlay(overlayPath(cmd, args[0]), doc)
	if err != nil {
		return err
	}
	eff := overlay.Effective(doc, ov)

	name, _ := cmd.Flags().GetString("format")
	if name == "markdown" || name == "md" {
		return serializer.Write(cmd.OutOrStdout(), eff)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}
	return export.Encode(cmd.OutOrStdout(), eff, format)
}
