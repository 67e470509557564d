package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ngenohkevin/circulation/internal/config"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/services"
)

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(logger, false)
			if err != nil {
				return err
			}
			defer e.Close()

			applied, err := database.Migrate(cmd.Context(), e.db.Pool, logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			return nil
		},
	}
}

func newSweepStaleCmd(logger *slog.Logger) *cobra.Command {
	var nowFlag string
	cmd := &cobra.Command{
		Use:   "sweep-stale",
		Short: "Cancel pending reservations older than the stale threshold",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if nowFlag != "" {
				parsed, err := time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				now = parsed
			}

			e, err := openEnv(logger, false)
			if err != nil {
				return err
			}
			defer e.Close()

			svc := services.NewReservationService(e.store, e.settings, logger).WithAudit(e.audit)
			result, err := svc.SweepStale(cmd.Context(), now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d reservation(s) %v\n", result.Count, result.IDs)
			return nil
		},
	}
	cmd.Flags().StringVar(&nowFlag, "now", "", "reference time (RFC3339), default current time")
	return cmd
}

func newMarkOverdueCmd(logger *slog.Logger) *cobra.Command {
	var asOfFlag string
	cmd := &cobra.Command{
		Use:   "mark-overdue",
		Short: "Flag issued loans past their due date as OVERDUE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var asOf models.Date
			if asOfFlag != "" {
				parsed, err := models.ParseDate(asOfFlag)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				asOf = parsed
			}

			e, err := openEnv(logger, false)
			if err != nil {
				return err
			}
			defer e.Close()

			svc := services.NewIssuanceService(e.store, e.settings, logger).WithAudit(e.audit)
			result, err := svc.MarkOverdue(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d loan(s) overdue %v\n", result.Count, result.IDs)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD), default today")
	return cmd
}

func newDispatchCmd(logger *slog.Logger) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver due notification jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(logger, true)
			if err != nil {
				return err
			}
			defer e.Close()

			dispatcher := services.NewRedisDispatcher(e.redis.Client, e.cfg.Notifications, logger)
			sender := services.LogSender{Logger: logger}

			if once {
				stats, err := dispatcher.ProcessDue(cmd.Context(), time.Now(), sender)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "claimed=%d sent=%d retried=%d dead=%d\n",
					stats.Claimed, stats.Sent, stats.Retried, stats.Dead)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := dispatcher.Run(ctx, sender, e.cfg.Notifications.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "process due jobs once and exit")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "hash-password",
		Short:         "Print the argon2id hash of a password read from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			password, err := readPassword(cmd, in, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword(cmd, in, "Confirm: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			// Hashing needs no signing key, but the service requires one.
			key, err := throwawayKey()
			if err != nil {
				return err
			}
			auth, err := services.NewAuthService(key, time.Hour, nil, nil)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTokenCmd(logger *slog.Logger) *cobra.Command {
	var (
		userID   int32
		memberID int32
		role     string
		username string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with the configured key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.UserRole(role)
			if !r.Valid() {
				return fmt.Errorf("--role must be one of superuser, admin, manager or member, got %q", role)
			}
			if r == models.RoleMember && memberID == 0 {
				return errors.New("--member-id is required for the member role")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWT.PrivateKey == "" {
				return errors.New("jwt.private_key is not configured")
			}
			auth, err := services.NewAuthService(cfg.JWT.PrivateKey, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, logger, nil)
			if err != nil {
				return err
			}
			if username == "" {
				username = fmt.Sprintf("user%d", userID)
			}
			token, err := auth.GenerateToken(&models.User{ID: userID, Username: username, Role: r}, memberID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int32Var(&userID, "user-id", 0, "user id placed in the token")
	cmd.Flags().Int32Var(&memberID, "member-id", 0, "member id placed in the token")
	cmd.Flags().StringVar(&role, "role", "", "superuser, admin, manager or member")
	cmd.Flags().StringVar(&username, "username", "", "username placed in the token")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func throwawayKey() (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return string(pem.EncodeToMemory(block)), nil
}
