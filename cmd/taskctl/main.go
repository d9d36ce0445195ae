package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tasktrack/tasktracker/internal/config"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/repository"
	"github.com/tasktrack/tasktracker/internal/services"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskctl",
		Short:   "Operator commands for the task tracker store",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logging.Init(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Service: "taskctl"})
		},
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(usersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes (or the data directory for the file store)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if _, err := repository.Open(cfg); err != nil {
				return err
			}
			fmt.Printf("Store %q is ready\n", cfg.StoreDriver)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert directory users and projects",
		Long: `Upsert directory users and projects from a YAML file:

  users:
    - id: u-mgr
      name: Morgan Manager
      role: manager
      password: changeme123
    - id: u-stf-1
      name: Sam Staff
      role: staff
      managerId: u-mgr
  projects:
    - Website Refresh

Without --file the demo directory is seeded, with password "` + services.DemoPassword + `".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := services.DemoDirectory()
			if file != "" {
				loaded, err := services.LoadSeedFile(file)
				if err != nil {
					return err
				}
				seed = loaded
			}

			repos, err := repository.Open(config.Load())
			if err != nil {
				return err
			}

			result, err := services.NewDirectoryService(repos.Users, repos.Projects).Seed(seed)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d users and %d new projects\n", result.Users, result.Projects)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file")

	return cmd
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Print the user directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := repository.Open(config.Load())
			if err != nil {
				return err
			}

			users, err := services.NewDirectoryService(repos.Users, repos.Projects).ListUsers()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROLE\tDEPARTMENT\tMANAGER")
			for _, u := range users {
				manager := "-"
				if u.ManagerID != nil {
					manager = *u.ManagerID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Role, u.Department, manager)
			}
			return w.Flush()
		},
	}
}
