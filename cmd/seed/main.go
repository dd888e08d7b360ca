package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"techlam/internal/config"
	"techlam/internal/db"
	"techlam/internal/logger"
	"techlam/internal/model"
	"techlam/internal/repository"
	"techlam/internal/seed"
	"techlam/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Load site content and assign roles directly in the database",
		SilenceUsage: true,
	}
	root.AddCommand(newContentCmd(), newGrantCmd(), newUsersCmd())
	return root
}

func newContentCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Create or update projects and contact info from a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, log, err := connect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			log.Info("fetching seed document", "source", source)
			doc, err := seed.Load(ctx, &http.Client{Timeout: 30 * time.Second}, source)
			if err != nil {
				return err
			}

			projects := service.NewProjectService(repository.NewProjectRepository(gormDB), nil)
			contact := service.NewContactService(repository.NewContactInfoRepository(gormDB), nil)
			res, err := seed.Apply(ctx, projects, contact, doc)
			if err != nil {
				return err
			}
			log.Info("seed completed",
				"projects_created", res.Created,
				"projects_updated", res.Updated,
				"contact_info_updated", res.ContactUpdated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "seed.json", "path or http(s) URL of the seed document")
	return cmd
}

func newGrantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant <email> <none|editor|admin>",
		Short: "Set the role of a registered user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := model.Role(args[1])
			if role != model.RoleNone && model.ParseRole(args[1]) == model.RoleNone {
				return fmt.Errorf("unknown role %q", args[1])
			}
			gormDB, log, err := connect()
			if err != nil {
				return err
			}
			users := repository.NewUserRepository(gormDB)
			roles := repository.NewRoleRepository(gormDB)
			if err := seed.GrantRole(cmd.Context(), users, roles, args[0], role); err != nil {
				return err
			}
			log.Info("role updated", "email", args[0], "role", role)
			return nil
		},
	}
	return cmd
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users and their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, _, err := connect()
			if err != nil {
				return err
			}
			accounts, err := seed.Users(cmd.Context(), repository.NewUserRepository(gormDB), repository.NewRoleRepository(gormDB))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tROLE\tVERIFIED\tREGISTERED")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", a.Email, a.Role, a.Verified, humanize.Time(a.CreatedAt))
			}
			return w.Flush()
		},
	}
}

func connect() (*gorm.DB, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.SetupDefault(os.Stderr, cfg.LogLevel)

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx, gormDB); err != nil {
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, err
	}
	log.Info("connected to database", "driver", cfg.Database.Driver)
	return gormDB, log, nil
}
