package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/oceanboard/internal/auth"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername  string
	signupUsername string
	signupEmail    string
	signupFullName string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long: `Sign in and remember the access token for later commands.
The password is read from the terminal without echo, or from stdin when piped.

Examples:
  oceanboard login --username alice
  echo "$PASSWORD" | oceanboard login -u alice`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account and sign in with it.

Examples:
  oceanboard signup --username alice --email alice@example.org --name "Alice Smith"`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")

	signupCmd.Flags().StringVarP(&signupUsername, "username", "u", "", "account username")
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "email address")
	signupCmd.Flags().StringVar(&signupFullName, "name", "", "full name (optional)")
}

func newAuthService() *auth.Service {
	return auth.NewService(api, state, logger)
}

func runLogin(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd)

	username := loginUsername
	if username == "" {
		var err error
		if username, err = p.line("Username: "); err != nil {
			return err
		}
	}
	password, err := p.secret("Password: ")
	if err != nil {
		return err
	}

	token, err := newAuthService().Login(cmd.Context(), auth.LoginInput{Username: username, Password: password})
	if err != nil {
		return describeAuthError(err)
	}

	notify.Success(notifier, fmt.Sprintf("Signed in as %s", token.User.Username))
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd)

	in := auth.SignupInput{Username: signupUsername, Email: signupEmail, FullName: signupFullName}
	var err error
	if in.Username == "" {
		if in.Username, err = p.line("Username: "); err != nil {
			return err
		}
	}
	if in.Email == "" {
		if in.Email, err = p.line("Email: "); err != nil {
			return err
		}
	}
	if in.Password, err = p.secret("Password: "); err != nil {
		return err
	}
	if in.ConfirmPassword, err = p.secret("Confirm password: "); err != nil {
		return err
	}

	token, err := newAuthService().Signup(cmd.Context(), in)
	if err != nil {
		return describeAuthError(err)
	}

	notify.Success(notifier, fmt.Sprintf("Welcome, %s! Your account is ready", token.User.Username))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := newAuthService().Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

// describeAuthError turns form validation failures into one line per field.
func describeAuthError(err error) error {
	var ve *auth.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var b strings.Builder
	b.WriteString("please fix the form:")
	for _, f := range ve.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Field, f.Message)
	}
	return errors.New(b.String())
}

// prompter reads answers from the command's input. Secrets are read without
// echo when the input is a terminal.
type prompter struct {
	in   *bufio.Reader
	file *os.File
	out  io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	input := cmd.InOrStdin()
	p := &prompter{in: bufio.NewReader(input), out: cmd.ErrOrStderr()}
	if f, ok := input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.file = f
	}
	return p
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	if p.file == nil {
		s, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && s != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(s, "\r\n"), nil
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(p.file.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
