package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hackauth",
	Short: "Hackathon authentication service",
	Long:  `Hackathon authentication service: accounts, email verification, password reset and signup through an identity provider.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
