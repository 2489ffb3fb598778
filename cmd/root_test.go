package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrainThenSegment(t *testing.T) {
	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.txt")
	modelPath := filepath.Join(dir, "model.db")
	inputPath := filepath.Join(dir, "input.txt")
	outputPath := filepath.Join(dir, "output.txt")

	require.NoError(t, os.WriteFile(trainPath, []byte(
		"unhappiness happiness happy\nhappy happy happy happy happiness\n"), 0644))
	require.NoError(t, os.WriteFile(inputPath, []byte(
		"happy unhappy\nhappiness\n"), 0644))

	rootCmd.SetArgs([]string{
		"train",
		"--train-file", trainPath,
		"--model", modelPath,
		"--iter", "5",
		"--workers", "2",
		"--hard-em",
	})
	require.NoError(t, rootCmd.Execute())
	require.FileExists(t, modelPath)

	rootCmd.SetArgs([]string{
		"segment",
		"--model", modelPath,
		"--input", inputPath,
		"--output", outputPath,
	})
	require.NoError(t, rootCmd.Execute())

	raw, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2, "one output line per input line")

	// Stripping the affix markers and joining must rebuild each input word.
	rebuild := func(line string) string {
		return strings.NewReplacer("+", "", " ", "").Replace(line)
	}
	require.Equal(t, "happyunhappy", rebuild(lines[0]))
	require.Equal(t, "happiness", rebuild(lines[1]))
}

func TestSegmentMissingModel(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("word\n"), 0644))

	rootCmd.SetArgs([]string{
		"segment",
		"--model", filepath.Join(dir, "missing.db"),
		"--input", inputPath,
	})
	require.Error(t, rootCmd.Execute())
}
