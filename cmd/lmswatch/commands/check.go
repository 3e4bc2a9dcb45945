package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkFirst bool

var checkCmd = &cobra.Command{
	Use:   "check <user-id>",
	Short: "Checks every active course of a user for new or changed announcements.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		userID := parseUserID(args[0])

		a := mustApp(ctx, nil)
		defer a.Close(ctx)

		count, err := a.service.CheckNewMessages(ctx, userID, checkFirst)
		if err != nil {
			fatal("check failed", err)
		}
		fmt.Printf("%d new announcements\n", count)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <user-id>",
	Short: "Refreshes the course roster of a user from the portal home page.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		userID := parseUserID(args[0])

		a := mustApp(ctx, nil)
		defer a.Close(ctx)

		err := a.service.SyncCourses(ctx, userID)
		if err != nil {
			fatal("sync failed", err)
		}
		printCourses(a, cmd, userID)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkFirst, "first", false, "Treat this as the first batch: store without notifying individually.")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(syncCmd)
}
