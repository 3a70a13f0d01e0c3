package main

import (
	"fmt"

	"ems-inventory/internal/auth"
	"ems-inventory/internal/config"
	"ems-inventory/internal/database"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/models"
	"ems-inventory/internal/seed"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func openMigrated() (*gorm.DB, error) {
	dsn, level := config.DatabaseSettings()
	db, err := database.Open(database.Options{DSN: dsn, LogLevel: level})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigrated()
		if err != nil {
			return err
		}
		defer database.Close(db)
		fmt.Println("Schema is up to date.")
		return nil
	},
}

var seedOpts seed.Options

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the default accounts and EMS starter inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigrated()
		if err != nil {
			return err
		}
		defer database.Close(db)

		rep, err := seed.Run(cmd.Context(), db, ledger.NewEngine(db, nil), seedOpts)
		if err != nil {
			return err
		}
		fmt.Printf(`
=== Seed Report ===
Users:          %d
Categories:     %d
Supplies:       %d
Transactions:   %d
`, rep.Users, rep.Categories, rep.Supplies, rep.Transactions)
		return nil
	},
}

var (
	newUser  auth.NewUser
	userRole string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a dashboard account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigrated()
		if err != nil {
			return err
		}
		defer database.Close(db)

		newUser.Role = models.UserRole(userRole)
		u, err := auth.CreateUser(db.WithContext(cmd.Context()), newUser)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s %q (id %d)\n", u.Role, u.Username, u.ID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOpts.AdminUsername, "admin-username", seed.DefaultAdminUsername, "username of the seeded admin")
	seedCmd.Flags().StringVar(&seedOpts.AdminPassword, "admin-password", "", "password of the seeded admin (default admin123)")
	seedCmd.Flags().StringVar(&seedOpts.ManagerPassword, "manager-password", "", "password of the sample managers")
	seedCmd.Flags().BoolVar(&seedOpts.SkipUsage, "no-usage", false, "skip the sample usage transactions")

	userCreateCmd.Flags().StringVar(&newUser.Username, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&newUser.Password, "password", "", "password, at least 8 characters")
	userCreateCmd.Flags().StringVar(&newUser.Email, "email", "", "optional email, also accepted at login")
	userCreateCmd.Flags().StringVar(&newUser.FullName, "name", "", "full name")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleManager), "admin or manager")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, userCmd)
}
