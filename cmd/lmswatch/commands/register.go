package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const envPassword = "LMSWATCH_PASSWORD"

var registerPassword string

var registerCmd = &cobra.Command{
	Use:   "register <username> <chat-id>",
	Short: "Registers a portal account and delivers its current announcements.",
	Long:  "Registers a portal account. The password is read from --password or the " + envPassword + " environment variable.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		password := registerPassword
		if password == "" {
			password = os.Getenv(envPassword)
		}
		if password == "" {
			fmt.Fprintln(os.Stderr, "a password must be given through --password or "+envPassword)
			os.Exit(1)
		}

		a := mustApp(ctx, nil)
		defer a.Close(ctx)

		user, processed, err := a.service.Register(ctx, args[0], password, args[1])
		if user.ID == 0 {
			fatal("registration failed", err)
		}
		fmt.Printf("registered user %d, %d announcements processed\n", user.ID, processed)
		if err != nil {
			fatal("registration finished with errors", err)
		}
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "The portal password.")
	rootCmd.AddCommand(registerCmd)
}
