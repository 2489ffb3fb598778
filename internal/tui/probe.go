// Package tui hosts the interactive model inspector: a small prompt session
// for querying emission, transition and likeness values of a loaded store
// and for segmenting words by hand during error analysis.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesr66a/translate/internal/morphology"
)

const probeHelp = "e <substr> emission probs | l <substr> likeness | t transitions | s <word> segment"

// maxTranscript bounds the scrollback kept on screen.
const maxTranscript = 20

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

type probeModel struct {
	input      textinput.Model
	params     *morphology.Params
	segmentor  *morphology.Segmentor
	transcript []string
}

// NewProbeModel builds the inspector over an already-loaded, immutable
// parameter store. All queries are pure reads.
func NewProbeModel(params *morphology.Params) tea.Model {
	input := textinput.New()
	input.Placeholder = "e happ"
	input.Focus()
	return &probeModel{
		input:     input,
		params:    params,
		segmentor: morphology.NewSegmentor(params),
	}
}

func (m *probeModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *probeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			query := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if query == "" {
				return m, nil
			}
			m.append("> " + query)
			m.append(m.evaluate(query))
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *probeModel) append(line string) {
	m.transcript = append(m.transcript, line)
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
}

func (m *probeModel) evaluate(query string) string {
	fields := strings.Fields(query)
	switch {
	case fields[0] == "t":
		return m.transitionTable()
	case len(fields) > 1 && fields[0] == "e":
		return m.classRow(fields[1], m.params.EmissionProb)
	case len(fields) > 1 && fields[0] == "l":
		return m.classRow(fields[1], func(c morphology.Class, substr string) float64 {
			return m.params.Likeness[c][substr]
		})
	case len(fields) > 1 && fields[0] == "s":
		segmented, err := m.segmentor.SegmentWord(fields[1], true)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return segmented
	}
	return "unrecognized query; " + probeHelp
}

func (m *probeModel) classRow(substr string, lookup func(morphology.Class, string) float64) string {
	parts := make([]string, morphology.NumClasses)
	for c := morphology.Class(0); c < morphology.NumClasses; c++ {
		parts[c] = fmt.Sprintf("%s=%g", c, lookup(c, substr))
	}
	return strings.Join(parts, "  ")
}

func (m *probeModel) transitionTable() string {
	var b strings.Builder
	for from := morphology.State(0); from < morphology.NumStates; from++ {
		for to := morphology.State(0); to < morphology.NumStates; to++ {
			if prob := m.params.TransitionProb(from, to); prob != 0 {
				fmt.Fprintf(&b, "%s -> %s: %g\n", from, to, prob)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *probeModel) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("morphseg probe"))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(probeHelp))
	b.WriteString("\n\n")
	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("(esc to quit)"))
	return b.String()
}
