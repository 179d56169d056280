package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/util/log"
)

var (
	renderInput  string
	renderOutput string
	renderFormat string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render snapshots to SVG or PNG",
	Long: `Render the backend's current snapshot, or snapshot JSON files matching a
glob, without starting the viewer.

  treeviz render -o tree.svg
  treeviz render --input 'traces/**/*.json' --format png -o frames/`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if renderInput == "" {
			checkErr(renderLive(ctx))
			return
		}
		checkErr(renderFiles(ctx))
	},
}

func outputFormat(path string) (render.Format, error) {
	if renderFormat != "" {
		return render.ParseFormat(renderFormat)
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return render.ParseFormat(ext)
	}
	return render.FormatSVG, nil
}

func renderLive(ctx context.Context) error {
	snap, err := newClient().Snapshot(ctx)
	if err != nil {
		return err
	}
	format, err := outputFormat(renderOutput)
	if err != nil {
		return err
	}
	if renderOutput == "" || renderOutput == "-" {
		return renderSnapshot(os.Stdout, format, snap)
	}
	return renderToFile(renderOutput, format, snap)
}

func renderFiles(ctx context.Context) error {
	paths, err := doublestar.FilepathGlob(renderInput)
	if err != nil {
		return fmt.Errorf("error globbing: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files found matching %s", renderInput)
	}
	format, err := outputFormat("")
	if err != nil {
		return err
	}
	outdir := renderOutput
	if outdir == "" {
		outdir = "."
	}
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, path := range paths {
		snap, err := readSnapshot(path)
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		target := filepath.Join(outdir, base+"."+string(format))
		if err := renderToFile(target, format, snap); err != nil {
			return fmt.Errorf("failed to render %s: %w", path, err)
		}
		log.Infow(ctx, "Rendered snapshot", "input", path, "output", target)
	}
	return nil
}

func readSnapshot(path string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	snap, err := snapshot.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return snap, nil
}

func renderToFile(path string, format render.Format, snap *snapshot.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := renderSnapshot(f, format, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderSnapshot(w io.Writer, format render.Format, snap *snapshot.Snapshot) error {
	l, err := layout.Build(snap, layout.DefaultConfig())
	if err != nil {
		return err
	}
	return render.Encode(w, format, l, snap.NodeCapacity, render.DefaultPalette())
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.PersistentFlags().StringVarP(&renderInput, "input", "i", "", "glob of snapshot JSON files; the live backend is used if empty")
	renderCmd.PersistentFlags().StringVarP(&renderOutput, "output", "o", "", "output file, or directory when rendering files")
	renderCmd.PersistentFlags().StringVarP(&renderFormat, "format", "f", "", "svg or png; inferred from the output extension if empty")
}
