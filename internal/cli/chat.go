package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/oceanboard/internal/chat"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/synth"
	"github.com/spf13/cobra"
)

var chatNew bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the ocean data assistant",
	Long: `Chat with the ocean data assistant. The most recent conversation is
resumed unless --new is given. With a message argument, one question is
asked and answered; otherwise an interactive prompt starts.

Interactive commands:
  /new [title]  start a new conversation
  /history      show the conversation so far
  /quit         leave

Examples:
  oceanboard chat "show me the temperature profile"
  oceanboard chat --new`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a new conversation")
}

func newChatSession() *chat.Session {
	return chat.New(chat.Config{
		Backend:   api,
		Responder: chat.NewResponder(synth.New(cfg.Seed), chat.DefaultRules()),
		Notifier:  notifier,
		Logger:    logger,
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	session := newChatSession()

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start chat: %w", err)
	}
	if chatNew {
		if err := session.NewChat(ctx, chat.DefaultTitle); err != nil {
			return fmt.Errorf("start chat: %w", err)
		}
	}

	if len(args) > 0 {
		reply, err := session.Submit(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printMessage(out, reply)
		return nil
	}

	printSessionHeader(out, session)
	for _, m := range session.Messages() {
		printMessage(out, m)
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, theme.statusStyle().Render("you> "))
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/history":
			for _, m := range session.Messages() {
				printMessage(out, m)
			}
			continue
		case line == "/new" || strings.HasPrefix(line, "/new "):
			title := strings.TrimSpace(strings.TrimPrefix(line, "/new"))
			if title == "" {
				title = chat.DefaultTitle
			}
			if err := session.NewChat(ctx, title); err != nil {
				return fmt.Errorf("new chat: %w", err)
			}
			printSessionHeader(out, session)
			continue
		}

		reply, err := session.Submit(ctx, line)
		if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrBusy) {
			fmt.Fprintln(out, theme.hintStyle().Render(err.Error()))
			continue
		}
		if err != nil {
			return err
		}
		printMessage(out, reply)
	}
}

func printSessionHeader(w io.Writer, session *chat.Session) {
	current := session.Current()
	title := current.Title
	if title == "" {
		title = chat.DefaultTitle
	}
	line := theme.titleStyle().Render(title)
	if session.Local() {
		line += " " + theme.warningStyle().Render("[offline]")
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, theme.hintStyle().Render("Type /quit to leave, /new to start over"))
}

func printMessage(w io.Writer, m models.ChatMessage) {
	if m.Role == models.RoleUser {
		fmt.Fprintf(w, "%s %s\n", theme.statusStyle().Render("you>"), m.Content)
		return
	}
	fmt.Fprintf(w, "%s %s\n", theme.completedStyle().Render("assistant>"), m.Content)
	for _, c := range m.Charts {
		fmt.Fprintln(w, "  "+theme.hintStyle().Render(describeChart(c)))
	}
}

// describeChart summarizes a chart the terminal cannot draw.
func describeChart(c models.ChartSpec) string {
	points := 0
	for _, s := range c.Series {
		points += len(s.Y)
	}
	return fmt.Sprintf("[%s chart] %s (%d series, %d points)", c.Type, c.Title, len(c.Series), points)
}
