package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesr66a/translate/internal/logger"
	"github.com/jamesr66a/translate/internal/morphology"
	"github.com/jamesr66a/translate/internal/store"
)

type segmentFlags struct {
	modelPath    string
	inputFile    string
	outputFile   string
	affixSymbols bool
}

var segmentOpts segmentFlags

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Segment a raw text file with a trained model",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := store.Load(segmentOpts.modelPath)
		if err != nil {
			return err
		}
		segmentor := morphology.NewSegmentor(params)

		in, err := os.Open(segmentOpts.inputFile)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer in.Close()

		out := os.Stdout
		if segmentOpts.outputFile != "" {
			f, err := os.Create(segmentOpts.outputFile)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		writer := bufio.NewWriter(out)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
		lines := 0
		for scanner.Scan() {
			words := strings.Fields(scanner.Text())
			parts := make([]string, len(words))
			for i, word := range words {
				segmented, err := segmentor.SegmentWord(word, segmentOpts.affixSymbols)
				if err != nil {
					return fmt.Errorf("segmenting %q: %w", word, err)
				}
				parts[i] = segmented
			}
			fmt.Fprintln(writer, strings.Join(parts, " "))
			lines++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if err := writer.Flush(); err != nil {
			return fmt.Errorf("flushing output: %w", err)
		}
		logger.Info("segmented %d lines", lines)
		return nil
	},
}

func init() {
	f := segmentCmd.Flags()
	f.StringVar(&segmentOpts.modelPath, "model", "", "path to a trained model file")
	f.StringVar(&segmentOpts.inputFile, "input", "", "raw text to segment")
	f.StringVar(&segmentOpts.outputFile, "output", "", "segmented output file (stdout if empty)")
	f.BoolVar(&segmentOpts.affixSymbols, "affix-symbols", true, "mark affixes with + symbols in the output")
	segmentCmd.MarkFlagRequired("model")
	segmentCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(segmentCmd)
}
