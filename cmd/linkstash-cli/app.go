package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/linkstash/internal/clock"
	"github.com/nkiryanov/linkstash/internal/db"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/repository"
	"github.com/nkiryanov/linkstash/internal/repository/postgres"
	"github.com/nkiryanov/linkstash/internal/service/auth"
	"github.com/nkiryanov/linkstash/internal/service/auth/tokenmanager"
)

const (
	defaultTotpWindow        = 1
	defaultMinPasswordLength = 12
	defaultUsernameThreshold = 5
	defaultIPThreshold       = 20
	defaultWindow            = 10 * time.Minute

	// Rate limit key for logins made through the cli
	localIP = "127.0.0.1"
)

type cliApp struct {
	pool    *pgxpool.Pool
	storage repository.Storage
	auth    *auth.AuthService
}

// newCliApp wires the auth core against the configured database.
// Configuration comes from the same env vars the server uses.
func newCliApp(ctx context.Context) (*cliApp, error) {
	if wd, err := os.Getwd(); err == nil {
		if envMap, err := godotenv.Read(filepath.Join(wd, ".env")); err == nil {
			for key, value := range envMap {
				if os.Getenv(key) == "" {
					_ = os.Setenv(key, value)
				}
			}
		}
	}

	dsn := os.Getenv("DATABASE_URI")
	if dsn == "" {
		return nil, errors.New("DATABASE_URI must be set")
	}

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	storage := postgres.NewStorage(pool)
	clk := clock.System()

	tokenManager, err := tokenmanager.New(
		tokenmanager.Config{SecretKey: os.Getenv("SECRET_KEY")},
		storage.TokenAllowlist(),
		clk,
	)
	if err != nil {
		pool.Close()
		return nil, err
	}

	totpVerifier, err := auth.NewTotpVerifier(defaultTotpWindow, clk)
	if err != nil {
		pool.Close()
		return nil, err
	}

	rateLimiter, err := auth.NewRateLimiter(auth.RateLimiterConfig{
		UsernameThreshold: defaultUsernameThreshold,
		IPThreshold:       defaultIPThreshold,
		Window:            defaultWindow,
	}, storage.LoginAttempt(), clk)
	if err != nil {
		pool.Close()
		return nil, err
	}

	authService, err := auth.NewService(
		auth.Config{MinPasswordLength: defaultMinPasswordLength},
		tokenManager,
		totpVerifier,
		rateLimiter,
		storage.User(),
	)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &cliApp{pool: pool, storage: storage, auth: authService}, nil
}

func (a *cliApp) Close() {
	a.pool.Close()
}

func (a *cliApp) runToken(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("token subcommand required: generate or revoke")
	}

	switch args[0] {
	case "generate":
		fs := pflag.NewFlagSet("token generate", pflag.ContinueOnError)
		username := fs.String("username", "", "username to issue the token for")
		password := fs.String("password", "", "password of the user")
		totpCode := fs.String("totp-code", "", "totp code, required when second factor enabled")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *username == "" || *password == "" {
			return errors.New("--username and --password are required")
		}

		token, err := a.auth.Login(ctx, auth.LoginInput{
			Username: *username,
			Password: *password,
			TotpCode: *totpCode,
			Class:    models.ClassCli,
			IP:       localIP,
		})
		if err != nil {
			return err
		}

		fmt.Println("Token id:", token.Claims.TokenID)
		fmt.Println(token.Value)
		return nil

	case "revoke":
		fs := pflag.NewFlagSet("token revoke", pflag.ContinueOnError)
		tokenID := fs.String("token-id", "", "id (jti) of the token to revoke")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		id, err := uuid.Parse(*tokenID)
		if err != nil {
			return fmt.Errorf("--token-id must be a valid uuid: %w", err)
		}

		revoked, err := a.auth.RevokeToken(ctx, id)
		if err != nil {
			return err
		}

		if revoked {
			fmt.Println("Token revoked")
		} else {
			fmt.Println("Token was not on the allow-list, nothing to do")
		}
		return nil

	default:
		return fmt.Errorf("unknown token subcommand %q", args[0])
	}
}

func (a *cliApp) runTotp(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("totp subcommand required: enable or disable")
	}

	fs := pflag.NewFlagSet("totp", pflag.ContinueOnError)
	username := fs.String("username", "", "username to change the second factor for")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("--username is required")
	}

	switch args[0] {
	case "enable":
		secret, err := a.auth.EnableTotp(ctx, *username)
		if err != nil {
			return err
		}
		fmt.Println("TOTP enabled. Shared secret (shown once):", secret)
		return nil
	case "disable":
		if err := a.auth.DisableTotp(ctx, *username); err != nil {
			return err
		}
		fmt.Println("TOTP disabled")
		return nil
	default:
		return fmt.Errorf("unknown totp subcommand %q", args[0])
	}
}

func (a *cliApp) runPasswd(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("passwd", pflag.ContinueOnError)
	username := fs.String("username", "", "username to change the password for")
	password := fs.String("password", "", "the new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("--username and --password are required")
	}

	if err := a.auth.ChangePassword(ctx, *username, *password); err != nil {
		return err
	}

	fmt.Println("Password changed")
	return nil
}

func (a *cliApp) runCleanup(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deleted, err := a.auth.CleanupAttempts(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d login attempts\n", deleted)
	return nil
}
