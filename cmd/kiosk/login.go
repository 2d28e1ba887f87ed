package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/attendance-kiosk/internal/credential"
)

var logoutFlag bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the attendance API token in the system keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if logoutFlag {
			if err := credential.Delete(credential.APITokenKey); err != nil {
				return err
			}
			fmt.Println("API token removed.")
			return nil
		}

		var token string
		err := huh.NewInput().
			Title("Attendance API token").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("token is required")
				}
				return nil
			}).
			Run()
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}

		if err := credential.Set(credential.APITokenKey, strings.TrimSpace(token)); err != nil {
			return err
		}
		log.Info("API token stored in keyring")
		fmt.Println("API token saved.")
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Edit the kiosk configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := runSetup()
		if err != nil {
			return err
		}
		if saved {
			fmt.Printf("Configuration saved to %s\n", cfgPath)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&logoutFlag, "clear", false, "remove the stored token instead")
	rootCmd.AddCommand(loginCmd, setupCmd)
}
