package cli

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/upload"
)

// errUploadCancelled is returned when the user interrupts the progress UI.
var errUploadCancelled = errors.New("upload cancelled")

// uploadProgressMsg carries bytes sent so far.
type uploadProgressMsg upload.Progress

// uploadDoneMsg carries the final outcome of the upload.
type uploadDoneMsg struct {
	result *models.UploadResult
	err    error
}

// uploadModel is the bubbletea model for an upload in flight.
type uploadModel struct {
	filename string
	current  upload.Progress
	progress progress.Model
	theme    Theme
	cancel   context.CancelFunc
	done     bool
	quitting bool
	result   *models.UploadResult
	err      error
}

func newUploadModel(filename string, theme Theme, cancel context.CancelFunc) uploadModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return uploadModel{
		filename: filename,
		progress: prog,
		theme:    theme,
		cancel:   cancel,
	}
}

func (m uploadModel) Init() tea.Cmd {
	return m.progress.Init()
}

func (m uploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case uploadProgressMsg:
		m.current = upload.Progress(msg)
		return m, nil

	case uploadDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		if m.result != nil {
			m.current.Sent = m.current.Total
		}
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m uploadModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m uploadModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render(fmt.Sprintf("\nUpload of %s cancelled.\n", m.filename))
	}
	if m.done {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render("[uploading]")
	bar := m.progress.ViewAs(m.current.Fraction())
	counts := fmt.Sprintf("%s / %s", formatBytes(m.current.Sent), formatBytes(m.current.Total))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m uploadModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ Upload failed: %s\n", m.err))
	}
	if m.result == nil {
		return m.theme.completedStyle().Render("✓ Uploaded\n")
	}

	r := m.result
	output := m.theme.completedStyle().Render("✓ Uploaded "+r.Filename) + "\n\n"
	output += fmt.Sprintf("  Size:     %s\n", formatBytes(r.Size))
	output += fmt.Sprintf("  Type:     %s\n", r.ContentType)
	output += fmt.Sprintf("  Records:  %d\n", r.Records)
	return output
}

// runUploadProgress uploads path while showing an interactive progress bar.
// Ctrl+C cancels the upload.
func runUploadProgress(ctx context.Context, uploader *upload.Uploader, path, filename string) (*models.UploadResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newUploadModel(filename, theme, cancel))

	go func() {
		result, err := uploader.UploadFile(ctx, path, func(pr upload.Progress) {
			p.Send(uploadProgressMsg(pr))
		})
		p.Send(uploadDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(uploadModel)
	if !ok {
		return nil, errors.New("progress UI returned an unexpected model")
	}
	if m.quitting {
		return nil, errUploadCancelled
	}
	return m.result, m.err
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
