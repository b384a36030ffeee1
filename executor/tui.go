package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/tetress/executor/selfplay"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

type GameUpdate struct {
	WorkerID int
	Result   selfplay.GameResult
}

type doneMsg struct{}

type tickMsg time.Time

type model struct {
	rc          runConfig
	startTime   time.Time
	moves       int64
	decisions   int64
	fallbacks   int64
	wins        map[string]int
	recentGames []string
	updates     <-chan GameUpdate
	done        bool
}

func initialModel(updates <-chan GameUpdate, rc runConfig) model {
	return model{
		rc:        rc,
		startTime: time.Now(),
		wins:      map[string]int{},
		updates:   updates,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates <-chan GameUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.moves = totalMoves.Load()
		m.decisions = totalDecisions.Load()
		m.fallbacks = totalFallbacks.Load()
		return m, tickCmd()
	case GameUpdate:
		m.wins[msg.Result.WinnerName()]++
		m.recentGames = append([]string{fmt.Sprintf("Worker %d: %s", msg.WorkerID, msg.Result)}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	movesPerSec := 0.0
	if duration >= time.Second {
		movesPerSec = float64(m.moves) / duration.Seconds()
	}
	fallbackRate := 0.0
	if m.decisions > 0 {
		fallbackRate = float64(m.fallbacks) / float64(m.decisions)
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("Tetress self-play  budget=%s  c=%.2f  workers=%d", m.rc.search.TimeBudget, m.rc.search.Exploration, m.rc.workers)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Games Played:  %d\n", totalGames.Load())
	fmt.Fprintf(&sb, "Red / Blue / Draw: %d / %d / %d\n", m.wins["RED"], m.wins["BLUE"], m.wins["DRAW"])
	fmt.Fprintf(&sb, "Total Moves:   %d\n", m.moves)
	fmt.Fprintf(&sb, "Moves/Sec:     %.2f\n", movesPerSec)
	fmt.Fprintf(&sb, "Fallback rate: %.3f\n", fallbackRate)
	fmt.Fprintf(&sb, "Duration:      %s\n\n", duration.Round(time.Second))

	sb.WriteString("Recent Games:\n")
	for _, g := range m.recentGames {
		sb.WriteString(g + "\n")
	}
	if m.done {
		sb.WriteString("\nAll games finished.\n")
	} else {
		sb.WriteString("\n" + dimStyle.Render("Press q to quit.") + "\n")
	}
	return sb.String()
}
