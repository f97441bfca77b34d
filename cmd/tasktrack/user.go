package main

import (
	"errors"
	"fmt"

	"github.com/Joseda-hg/tasktrack/internal/auth"
	"github.com/Joseda-hg/tasktrack/internal/db"
	"github.com/spf13/cobra"
)

var (
	userNameFlag  string
	userEmailFlag string
	userDBFlag    string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts in the local database",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter()
		password, err := p.password("Password: ")
		if err != nil {
			return err
		}
		confirm, err := p.password("Repeat password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		if userDBFlag != "" {
			cfg.DBPath = userDBFlag
		}
		store, closeStore, err := openStore(dataPath(cfg.DBPath, "tasktrack.db"))
		if err != nil {
			return err
		}
		defer closeStore()

		user, err := store.CreateUser(cmd.Context(), db.UserInput{
			Name:         userNameFlag,
			Email:        userEmailFlag,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, db.ErrEmailTaken) {
				return fmt.Errorf("an account for %s already exists", userEmailFlag)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userNameFlag, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userEmailFlag, "email", "", "login email")
	userAddCmd.Flags().StringVar(&userDBFlag, "db", "", "sqlite db path")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userAddCmd)
}
