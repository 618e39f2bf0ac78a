package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/neuralart/internal/weights"
)

func newInspectWeightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect-weights FILE",
		Short: "Validate a VGG16 weight file and print per-layer statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  InspectWeightsHandler,
	}

	cmd.Flags().Bool("f16", false, "File holds half-precision values")
	cmd.Flags().String("convert", "", "Write the weights to this path")
	cmd.Flags().String("to", "f16", "Format of the converted file (f16 or f32)")

	return cmd
}

// InspectWeightsHandler decodes every layer of a weight file, prints a
// summary table and optionally re-encodes the file.
func InspectWeightsHandler(cmd *cobra.Command, args []string) error {
	format := weights.FormatF32
	if f16, _ := cmd.Flags().GetBool("f16"); f16 {
		format = weights.FormatF16
	}

	layers, err := readWeights(args[0], format)
	if err != nil {
		return err
	}

	data := make([][]string, 0, len(layers))
	for _, s := range weights.Summarize(layers) {
		data = append(data, []string{
			strconv.Itoa(s.Index),
			fmt.Sprintf("%d->%d", s.Spec.In, s.Spec.Out),
			strconv.Itoa(s.Spec.NumValues()),
			fmt.Sprintf("%.4g", s.WeightMin),
			fmt.Sprintf("%.4g", s.WeightMax),
			fmt.Sprintf("%.4g", s.WeightMean),
			fmt.Sprintf("[%.4g, %.4g]", s.BiasMin, s.BiasMax),
		})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"LAYER", "CHANNELS", "VALUES", "MIN", "MAX", "MEAN", "BIAS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	out, _ := cmd.Flags().GetString("convert")
	if out == "" {
		return nil
	}
	to, _ := cmd.Flags().GetString("to")
	target, err := weights.ParseFormat(to)
	if err != nil {
		return err
	}
	return writeWeights(out, layers, target)
}

func readWeights(path string, format weights.Format) ([]weights.Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	return weights.ReadAll(bufio.NewReader(f), format, weights.VGG16)
}

func writeWeights(path string, layers []weights.Layer, format weights.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := weights.Write(w, layers, format); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("converted weights", "path", path, "format", format)
	return f.Close()
}
