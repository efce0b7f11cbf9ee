package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviestore/internal/auth"
	"github.com/Clark-Hu/moviestore/internal/config"
	"github.com/Clark-Hu/moviestore/internal/domain"
	"github.com/Clark-Hu/moviestore/internal/repository"
	"github.com/Clark-Hu/moviestore/internal/store"
)

// env bundles what every database-backed command needs.
type env struct {
	cfg    config.Config
	store  *store.Store
	logger *log.Logger
}

func openEnv(ctx context.Context, verbose bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	out := io.Discard
	if verbose {
		out = os.Stderr
	}
	logger := log.New(out, "[moviectl] ", log.LstdFlags)

	st, err := store.Wait(ctx, cfg.DBURL, store.OptionsFromConfig(cfg, logger), store.WaitPolicyFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: st, logger: logger}, nil
}

func (e *env) close() {
	e.store.Close()
}

func (e *env) tokens() (*auth.TokenManager, error) {
	return auth.NewTokenManager(e.cfg.JWTSecret, time.Duration(e.cfg.JWTTTLHours)*time.Hour)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func waitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait-db",
		Short: "Block until the database accepts connections",
		Long:  "Retries DB_URL every DB_WAIT_INTERVAL_SECS, up to DB_WAIT_ATTEMPTS times (0 retries forever).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			fmt.Fprintln(cmd.OutOrStdout(), "Waiting for database...")
			e, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			defer e.close()
			fmt.Fprintln(cmd.OutOrStdout(), "Database available!")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the up migrations to DB_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx, cancel := commandContext(cmd)
			defer cancel()

			e, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			defer e.close()

			applied, err := e.store.Migrate(ctx, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", len(applied))
			return nil
		},
	}
	cmd.Flags().String("dir", "db/migrations", "Directory holding NNNN_name.up.sql files")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage store users",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print a bearer token for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			superuser, _ := cmd.Flags().GetBool("superuser")
			username = strings.TrimSpace(username)
			if username == "" {
				return errors.New("--username is required")
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			e, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			defer e.close()

			user, err := repository.New(e.store).Users.Create(ctx, username, superuser)
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("user %q already exists", username)
			}
			if err != nil {
				return err
			}
			return printToken(cmd, e, user)
		},
	}
	create.Flags().String("username", "", "Unique user name")
	create.Flags().Bool("superuser", false, "Grant superuser rights")

	cmd.AddCommand(create)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user-id")
			if userID <= 0 {
				return errors.New("--user-id must be a positive id")
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			e, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			defer e.close()

			user, err := repository.New(e.store).Users.GetByID(ctx, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("user %d not found", userID)
			}
			if err != nil {
				return err
			}
			return printToken(cmd, e, user)
		},
	}
	cmd.Flags().Int64("user-id", 0, "User id")
	return cmd
}

func printToken(cmd *cobra.Command, e *env, user domain.User) error {
	tokens, err := e.tokens()
	if err != nil {
		return err
	}
	token, err := tokens.Issue(user)
	if err != nil {
		return err
	}
	role := "user"
	if user.IsSuperuser {
		role = "superuser"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s, %s)\n%s\n", user.ID, user.Username, role, token)
	return nil
}
