package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/spf13/cobra"
)

var mailAssumeYes bool

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Resend account emails on behalf of a user",
}

var mailVerifyCmd = &cobra.Command{
	Use:   "verify <email>",
	Short: "Send a fresh email verification link",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := newApplicationForMailCommands(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		email := args[0]
		user, err := app.accounts.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no account for %q", email)
		}
		if !confirmSend("verification", user.Email) {
			fmt.Println("aborted")
			return nil
		}

		if err = app.verification.RequestVerification(ctx, user); err != nil {
			if errors.Is(err, service.ErrAlreadyVerified) {
				return fmt.Errorf("%s is already verified", user.Email)
			}
			return err
		}

		fmt.Printf("verification email sent to %s\n", user.Email)
		return nil
	},
}

var mailResetCmd = &cobra.Command{
	Use:   "reset <email>",
	Short: "Send a password reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := newApplicationForMailCommands(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		email := args[0]
		if !confirmSend("password reset", email) {
			fmt.Println("aborted")
			return nil
		}

		if err = app.resets.RequestReset(ctx, email); err != nil {
			if errors.Is(err, service.ErrNoSuchAccount) {
				return fmt.Errorf("no account for %q", email)
			}
			return err
		}

		fmt.Printf("password reset email sent to %s\n", email)
		return nil
	},
}

func init() {
	mailCmd.PersistentFlags().BoolVarP(&mailAssumeYes, "yes", "y", false, "send without asking for confirmation")
	mailCmd.AddCommand(mailVerifyCmd)
	mailCmd.AddCommand(mailResetCmd)
	rootCmd.AddCommand(mailCmd)
}

func newApplicationForMailCommands(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err = configureLogging(cfg); err != nil {
		return nil, err
	}
	return newApplication(ctx, cfg)
}

func confirmSend(kind, email string) bool {
	if mailAssumeYes {
		return true
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Send %s email to %s? [y/N]: ", kind, email)
	input, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
