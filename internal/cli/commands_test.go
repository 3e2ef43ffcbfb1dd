package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/dataview"
	"github.com/raphaelgruber/oceanboard/internal/db"
	"github.com/raphaelgruber/oceanboard/internal/server"
)

type cliEnv struct {
	apiURL    string
	exportDir string
}

// newCLIEnv starts a development backend and points the CLI at it through
// the environment, with state and exports in a temp dir.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	store, err := db.Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := server.New(server.Config{
		Store:  store,
		Tokens: server.NewTokenIssuer("cli-test-secret", time.Hour),
		Seed:   7,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	env := &cliEnv{apiURL: ts.URL, exportDir: filepath.Join(dir, "exports")}
	t.Setenv("OCEANBOARD_API_URL", ts.URL)
	t.Setenv("OCEANBOARD_STATE_FILE", filepath.Join(dir, "state.yaml"))
	t.Setenv("OCEANBOARD_LOG_FILE", filepath.Join(dir, "cli.log"))
	t.Setenv("OCEANBOARD_EXPORT_DIR", env.exportDir)
	t.Setenv("OCEANBOARD_SEED", "11")
	t.Setenv("OCEANBOARD_FETCH_TIMEOUT", "2s")
	return env
}

// run executes one CLI invocation and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := Execute()
	return out.String(), errOut.String(), err
}

// resetFlags restores every flag to its default between invocations and
// drops the context left behind by the previous run. cobra only hands the
// root context down to commands whose own context is still unset.
func resetFlags(cmd *cobra.Command) {
	cmd.SetContext(context.TODO())
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func signupAlice(t *testing.T) {
	t.Helper()
	_, stderr, err := run(t, "deep-water-42\ndeep-water-42\n",
		"signup", "--username", "alice", "--email", "alice@example.org", "--name", "Alice Smith")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Welcome, alice!")
}

func TestCommandsRequireLogin(t *testing.T) {
	newCLIEnv(t)

	_, _, err := run(t, "", "stats")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "please log in")
}

func TestSignupLoginLogout(t *testing.T) {
	newCLIEnv(t)
	signupAlice(t)

	_, _, err := run(t, "", "logout")
	require.NoError(t, err)

	_, _, err = run(t, "wrong-password\n", "login", "-u", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")

	_, stderr, err := run(t, "deep-water-42\n", "login", "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Signed in as alice")

	out, _, err := run(t, "", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "[live]")
	assert.Contains(t, out, "Alice Smith")
}

func TestSignupValidation(t *testing.T) {
	newCLIEnv(t)

	_, _, err := run(t, "short\nshorter\n", "signup", "-u", "al", "-e", "not-an-email")
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "username:")
	assert.Contains(t, msg, "email:")
	assert.Contains(t, msg, "password:")
	assert.Contains(t, msg, "confirm_password:")
}

func TestDashboardAndExplore(t *testing.T) {
	env := newCLIEnv(t)
	signupAlice(t)

	out, _, err := run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Overview [live]")
	assert.Contains(t, out, "Observations per month")
	assert.Contains(t, out, "Parameters")

	out, _, err = run(t, "", "explore", "--region", "Atlantic", "--range", "temperature=0:40", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Data explorer [live]")
	assert.Contains(t, out, "Atlantic")
	assert.NotContains(t, out, "Pacific")

	_, stderr, err := run(t, "", "explore", "--region", "Indian", "--export", "csv")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported")

	entries, err := os.ReadDir(env.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "ocean_data_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".csv"))
}

func TestExploreRejectPolicy(t *testing.T) {
	newCLIEnv(t)
	signupAlice(t)

	_, _, err := run(t, "", "explore", "--range-policy", "reject", "--range", "temperature=30:10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply filters")
}

func TestServerExportNeverOverwrites(t *testing.T) {
	env := newCLIEnv(t)
	signupAlice(t)

	for range 2 {
		_, stderr, err := run(t, "", "export", "--format", "json")
		require.NoError(t, err)
		assert.Contains(t, stderr, "Saved ")
	}

	entries, err := os.ReadDir(env.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, strings.HasSuffix(entries[1].Name(), "_2.json") || strings.HasSuffix(entries[0].Name(), "_2.json"))
}

func TestFallbackWhenBackendDown(t *testing.T) {
	newCLIEnv(t)
	signupAlice(t)

	// Keep the stored token but point at an address nothing listens on.
	dead := httptest.NewServer(nil)
	dead.Close()
	t.Setenv("OCEANBOARD_API_URL", dead.URL)

	out, stderr, err := run(t, "", "explore", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "[sample data]")
	assert.Contains(t, out, "(500 loaded)")
	assert.Equal(t, 1, strings.Count(stderr, dataview.FallbackNotice))
}

func TestChatOneShot(t *testing.T) {
	newCLIEnv(t)
	signupAlice(t)

	out, _, err := run(t, "", "chat", "show", "me", "the", "temperature", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "assistant>")
	assert.Contains(t, out, "[line chart]")
}

func TestChatInteractive(t *testing.T) {
	newCLIEnv(t)
	signupAlice(t)

	out, _, err := run(t, "salinity please\n\n/history\n/quit\n", "chat", "--new")
	require.NoError(t, err)
	assert.Contains(t, out, "New Chat")
	assert.Contains(t, out, "[histogram chart]")
	assert.GreaterOrEqual(t, strings.Count(out, "you> salinity please"), 1)
}

func TestUploadAndNotifications(t *testing.T) {
	newCLIEnv(t)
	signupAlice(t)

	path := filepath.Join(t.TempDir(), "floats.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,temperature\nA1,12.5\nA2,13.1\n"), 0o644))

	out, stderr, err := run(t, "", "upload", "--no-progress", path)
	require.NoError(t, err)
	assert.Contains(t, out, "floats.csv: 2 records")
	assert.Contains(t, stderr, "floats.csv")

	_, _, err = run(t, "", "upload", "--no-progress", filepath.Join(t.TempDir(), "model.exe"))
	require.Error(t, err)

	out, _, err = run(t, "", "notifications")
	require.NoError(t, err)
	assert.Contains(t, out, "Notifications")

	out, _, err = run(t, "", "activity")
	require.NoError(t, err)
	assert.Contains(t, out, "upload")

	out, _, err = run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage [live]")
}

func TestThemeCommand(t *testing.T) {
	newCLIEnv(t)

	out, _, err := run(t, "", "theme", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: dark")

	out, _, err = run(t, "", "theme", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: light")

	out, _, err = run(t, "", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: light")
}
