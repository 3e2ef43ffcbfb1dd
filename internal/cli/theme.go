package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/spf13/cobra"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Dark    bool
	Title   lipgloss.Color
	Status  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Border  lipgloss.Color
}

var lightTheme = Theme{
	Title:   lipgloss.Color("#005F87"), // deep blue
	Status:  lipgloss.Color("#0087AF"),
	Success: lipgloss.Color("#008700"),
	Warning: lipgloss.Color("#AF5F00"),
	Error:   lipgloss.Color("#D70000"),
	Hint:    lipgloss.Color("#6C6C6C"),
	Border:  lipgloss.Color("#A8A8A8"),
}

var darkTheme = Theme{
	Dark:    true,
	Title:   lipgloss.Color("#87D7FF"), // light blue
	Status:  lipgloss.Color("#5FAFD7"),
	Success: lipgloss.Color("#00D787"),
	Warning: lipgloss.Color("#FFAF00"),
	Error:   lipgloss.Color("#FF005F"),
	Hint:    lipgloss.Color("#8A8A8A"),
	Border:  lipgloss.Color("#4E4E4E"),
}

func themeFor(dark bool) Theme {
	if dark {
		return darkTheme
	}
	return lightTheme
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) borderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Border)
}

// consoleNotifier prints notices as one styled line each and forwards them
// to next (normally the log).
type consoleNotifier struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
	next  notify.Notifier
}

func newConsoleNotifier(w io.Writer, theme Theme, next notify.Notifier) *consoleNotifier {
	if next == nil {
		next = notify.Discard{}
	}
	return &consoleNotifier{w: w, theme: theme, next: next}
}

func (n *consoleNotifier) Notify(level notify.Level, message string) {
	var line string
	switch level {
	case notify.LevelSuccess:
		line = n.theme.completedStyle().Render("✓ " + message)
	case notify.LevelWarn:
		line = n.theme.warningStyle().Render("! " + message)
	case notify.LevelError:
		line = n.theme.errorStyle().Render("✗ " + message)
	default:
		line = n.theme.statusStyle().Render("• " + message)
	}

	n.mu.Lock()
	fmt.Fprintln(n.w, line)
	n.mu.Unlock()

	n.next.Notify(level, message)
}

var themeCmd = &cobra.Command{
	Use:   "theme [dark|light|toggle]",
	Short: "Show or change the color theme",
	Long: `Show or change the color theme. The choice is remembered across runs.

Examples:
  oceanboard theme
  oceanboard theme dark
  oceanboard theme toggle`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"dark", "light", "toggle"},
	RunE:      runTheme,
}

func runTheme(cmd *cobra.Command, args []string) error {
	dark := state.DarkMode()
	if len(args) == 1 {
		var err error
		switch args[0] {
		case "dark":
			dark, err = true, state.SetDarkMode(true)
		case "light":
			dark, err = false, state.SetDarkMode(false)
		case "toggle":
			dark, err = state.ToggleDarkMode()
		default:
			return fmt.Errorf("unknown theme %q (want dark, light or toggle)", args[0])
		}
		if err != nil {
			return fmt.Errorf("save theme: %w", err)
		}
		theme = themeFor(dark)
	}

	name := "light"
	if dark {
		name = "dark"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme.titleStyle().Render(name))
	return nil
}
