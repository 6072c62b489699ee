package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/migrations"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrationsDir string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Operational tasks for the storefront API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&migrationsDir, "migrations", "", "read migrations from this directory instead of the embedded set")

	root.AddCommand(migrateCmd(), createAdminCmd(), pruneTokensCmd())
	return root
}

// withDatabase loads config, opens the pool and hands both to fn.
func withDatabase(fn func(ctx context.Context, db database.Service, log *zap.Logger) error) error {
	cfg := config.Load()

	log := logger.NewWithDefaults()
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer dbService.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return fn(ctx, dbService, log)
}

// migrationSource is the embedded set unless --migrations points elsewhere.
func migrationSource() fs.FS {
	if migrationsDir != "" {
		return os.DirFS(migrationsDir)
	}
	return migrations.FS
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, db database.Service, log *zap.Logger) error {
				return database.RunMigrations(ctx, db.DB(), migrationSource(), log)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, db database.Service, log *zap.Logger) error {
				return database.RollbackMigration(ctx, db.DB(), migrationSource(), log)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, db database.Service, _ *zap.Logger) error {
				infos, err := database.GetMigrationStatus(ctx, db.DB(), migrationSource())
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), infos)
			})
		},
	})

	return cmd
}

func printStatus(out io.Writer, infos []database.MigrationInfo) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, m := range infos {
		state, appliedAt := "pending", "-"
		if m.Applied {
			state, appliedAt = "applied", m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Version, state, appliedAt, m.Path)
	}
	return tw.Flush()
}

func pruneTokensCmd() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "prune-tokens",
		Short: "Delete refresh tokens that expired more than --grace ago",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, db database.Service, log *zap.Logger) error {
				deleted, err := repository.NewRefreshTokenRepository(db.DB()).DeleteExpired(ctx, time.Now().Add(-grace))
				if err != nil {
					return err
				}
				log.Info("Pruned refresh tokens", zap.Int64("deleted", deleted), zap.Duration("grace", grace))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 24*time.Hour, "keep tokens for this long after they expire")

	return cmd
}

type adminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Promote   bool
}

func createAdminCmd() *cobra.Command {
	var in adminInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office account, or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, db database.Service, log *zap.Logger) error {
				user, created, err := ensureAdmin(ctx, repository.NewUserRepository(db.DB()), in)
				if err != nil {
					return err
				}
				log.Info("Admin account ready",
					zap.String("user_id", user.ID.String()),
					zap.String("email", user.Email),
					zap.Bool("created", created),
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password, at least 8 characters")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "Store", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "Admin", "last name")
	cmd.Flags().BoolVar(&in.Promote, "promote", false, "grant the admin role if the email is already registered")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// ensureAdmin creates the account with the admin role. With Promote set an
// existing account keeps its password and only has its role raised.
func ensureAdmin(ctx context.Context, users repository.UserRepository, in adminInput) (*domain.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, false, errors.New("email is required")
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !in.Promote {
			return nil, false, fmt.Errorf("%s already exists, pass --promote to grant admin", email)
		}
		if existing.Role != domain.RoleAdmin {
			if err := users.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.Role = domain.RoleAdmin
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	if len(in.Password) < 8 {
		return nil, false, errors.New("password must be at least 8 characters")
	}
	hash, err := service.HashPassword(in.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, true, nil
}
