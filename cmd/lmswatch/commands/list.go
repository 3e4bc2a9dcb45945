package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func printCourses(a *app, cmd *cobra.Command, userID int64) {
	courses, err := a.qry.ListCourses(cmd.Context(), userID)
	if err != nil {
		fatal("list courses", err)
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Name", "URL", "Active"})
	for _, c := range courses {
		t.AppendRow(table.Row{c.ID, c.Name, c.SuffixURL, c.Active})
	}
	t.Render()
}

var coursesCmd = &cobra.Command{
	Use:   "courses <user-id>",
	Short: "Lists the stored courses of a user.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := parseUserID(args[0])
		a := mustApp(cmd.Context(), nil)
		defer a.Close(cmd.Context())
		printCourses(a, cmd, userID)
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Lists registered users.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := mustApp(ctx, nil)
		defer a.Close(ctx)

		users, err := a.qry.ListUsers(ctx)
		if err != nil {
			fatal("list users", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Username", "Chat", "Interval (min)", "Created"})
		for _, u := range users {
			t.AppendRow(table.Row{u.ID, u.Username, u.ChatID, u.IntervalMinutes, u.CreatedAt})
		}
		t.Render()
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(usersCmd)
}
