package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var intervalCmd = &cobra.Command{
	Use:   "interval <user-id> <minutes>",
	Short: "Changes how often a user's courses are checked.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		userID := parseUserID(args[0])
		minutes, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fatal("invalid interval", err)
		}

		a := mustApp(ctx, nil)
		defer a.Close(ctx)

		err = a.service.SetInterval(ctx, userID, minutes)
		if err != nil {
			fatal("set interval", err)
		}
		fmt.Printf("user %d is now checked every %d minutes\n", userID, minutes)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <user-id>",
	Short: "Removes a user together with its courses and records.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		userID := parseUserID(args[0])

		a := mustApp(ctx, nil)
		defer a.Close(ctx)

		err := a.service.RemoveUser(ctx, userID)
		if err != nil {
			fatal("remove user", err)
		}
		fmt.Printf("removed user %d\n", userID)
	},
}

func init() {
	rootCmd.AddCommand(intervalCmd)
	rootCmd.AddCommand(removeCmd)
}
