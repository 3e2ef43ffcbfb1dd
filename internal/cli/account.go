package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/spf13/cobra"
)

var (
	profileEmail        string
	profileFullName     string
	profileOrganization string

	notificationsUnread bool
	activityLimit       int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change profile fields",
	Long: `Change profile fields. Only the flags you pass are changed.

Examples:
  oceanboard profile update --name "Alice Smith"
  oceanboard profile update --email alice@example.org --org "Ocean Lab"`,
	Args: cobra.NoArgs,
	RunE: runProfileUpdate,
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "List notifications",
	Args:    cobra.NoArgs,
	RunE:    runNotifications,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show your recent activity",
	Args:  cobra.NoArgs,
	RunE:  runActivity,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your usage counters",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileEmail, "email", "", "email address")
	profileUpdateCmd.Flags().StringVar(&profileFullName, "name", "", "full name")
	profileUpdateCmd.Flags().StringVar(&profileOrganization, "org", "", "organization")
	profileCmd.AddCommand(profileUpdateCmd)

	notificationsCmd.Flags().BoolVar(&notificationsUnread, "unread", false, "only unread notifications")
	notificationsCmd.AddCommand(notificationsReadCmd)

	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "entries to display")
}

func runProfile(cmd *cobra.Command, args []string) error {
	// The token subject names the placeholder profile shown while offline.
	claims, _ := state.Claims()

	profile, origin, err := newFactory().Profile(cmd.Context(), claims.Subject)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	out := cmd.OutOrStdout()
	printHeading(out, "Profile", origin)
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, [][]string{
		{"Username", profile.Username},
		{"Email", profile.Email},
		{"Name", profile.FullName},
		{"Role", profile.Role},
		{"Organization", profile.Organization},
	}))
	return nil
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	var update client.ProfileUpdate
	flags := cmd.Flags()
	if flags.Changed("email") {
		update.Email = &profileEmail
	}
	if flags.Changed("name") {
		update.FullName = &profileFullName
	}
	if flags.Changed("org") {
		update.Organization = &profileOrganization
	}
	if update.Email == nil && update.FullName == nil && update.Organization == nil {
		return errors.New("nothing to update: pass --email, --name or --org")
	}

	profile, err := api.UpdateProfile(cmd.Context(), update)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	notify.Success(notifier, fmt.Sprintf("Profile of %s updated", profile.Username))
	return nil
}

func runNotifications(cmd *cobra.Command, args []string) error {
	list, err := api.Notifications(cmd.Context())
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		if notificationsUnread && n.Read {
			continue
		}
		mark := "•"
		if n.Read {
			mark = ""
		}
		rows = append(rows, []string{mark, n.ID, n.Title, n.Body, n.CreatedAt.Local().Format(time.DateTime)})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No notifications.")
		return nil
	}

	fmt.Fprintf(out, "%s\n", theme.titleStyle().Render(fmt.Sprintf("Notifications (%d)", len(rows))))
	fmt.Fprintln(out, renderTable([]string{"", "ID", "Title", "Message", "Received"}, rows))
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	if err := api.MarkNotificationRead(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Marked as read.")
	return nil
}

func runActivity(cmd *cobra.Command, args []string) error {
	view := newFactory().Activity()
	res, err := view.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}

	entries := view.Data()
	entries = entries[:clampLimit(activityLimit, len(entries))]
	rows := make([][]string, 0, len(entries))
	for _, a := range entries {
		rows = append(rows, []string{a.Timestamp.Local().Format(time.DateTime), a.Action, a.Detail})
	}

	out := cmd.OutOrStdout()
	printHeading(out, "Recent activity", res.Origin)
	fmt.Fprintln(out, renderTable([]string{"When", "Action", "Detail"}, rows))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, origin, err := newFactory().UserStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	out := cmd.OutOrStdout()
	printHeading(out, "Usage", origin)
	fmt.Fprintln(out, renderTable(
		[]string{"Uploads", "Exports", "Queries", "Chat sessions"},
		[][]string{{
			strconv.Itoa(stats.Uploads),
			strconv.Itoa(stats.Exports),
			strconv.Itoa(stats.Queries),
			strconv.Itoa(stats.Sessions),
		}},
	))
	return nil
}
