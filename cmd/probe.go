package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jamesr66a/translate/internal/store"
	"github.com/jamesr66a/translate/internal/tui"
)

var probeModelPath string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Interactively inspect a trained model's parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := store.Load(probeModelPath)
		if err != nil {
			return err
		}
		p := tea.NewProgram(tui.NewProbeModel(params), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run probe session: %w", err)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeModelPath, "model", "", "path to a trained model file")
	probeCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(probeCmd)
}
