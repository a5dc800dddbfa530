/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/askmate/apiserver/config"
	"github.com/askmate/apiserver/internal/db"
	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// adminCmd groups admin account management subcommands.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var (
	adminID       string
	adminEmail    string
	adminPassword string
)

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Creates an admin account. Admins cannot self-register through the API;
this is the only way to provision one.

	askmate admin create --id AD00000001 --email admin@sliit.lk --password <secret>
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		adminID = strings.ToUpper(strings.TrimSpace(adminID))
		adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
		if adminID == "" || adminEmail == "" || adminPassword == "" {
			return errors.New("--id, --email and --password are required")
		}

		cfg := config.LoadConfig()
		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer conn.Close()

		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		repo := store.NewAdminRepository(conn)
		admin, err := repo.Create(cmd.Context(), types.Admin{
			AdminID:      adminID,
			Email:        adminEmail,
			PasswordHash: string(hashed),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("admin %s already exists", adminID)
			}
			return err
		}

		fmt.Printf("created admin %s (#%d)\n", admin.AdminID, admin.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().StringVar(&adminID, "id", "", "admin external id, e.g. AD00000001")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
}
