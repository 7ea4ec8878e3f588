// Command crmctl runs maintenance and back-office operations against the CRM store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scholarcrm/internal/app"
	"scholarcrm/internal/config"
	"scholarcrm/internal/database"
	"scholarcrm/internal/database/migrations"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/notification"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Back-office tooling for the lead and project CRM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			switch strings.ToLower(logLevel) {
			case "debug":
				level = slog.LevelDebug
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(migrateCmd(), balanceCmd(), statementCmd(), outboxCmd(), payoutCmd())
	return cmd
}

// withApp loads configuration, opens the app and closes it after fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := migrations.Run(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

var operator = domain.Actor{UID: "crmctl", Role: domain.RoleAdmin}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <partner-id>",
		Short: "Show a referral partner's payout balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				b, err := a.Payouts.AvailableBalance(ctx, operator, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, b)
			})
		},
	}
}

func statementCmd() *cobra.Command {
	var sales bool

	cmd := &cobra.Command{
		Use:   "statement <user-id>",
		Short: "Print a partner's commission statement, or a salesperson's with --sales",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if sales {
					st, err := a.Commissions.SalesStatement(ctx, operator, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd, st)
				}
				st, err := a.Commissions.PartnerStatement(ctx, operator, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, st)
			})
		},
	}
	cmd.Flags().BoolVar(&sales, "sales", false, "Statement for a salesperson")
	return cmd
}

func outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and deliver queued emails",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List queued emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				emails, err := a.Outbox.ListQueued(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, emails)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 100, "Maximum emails to list")

	flush := &cobra.Command{
		Use:   "flush",
		Short: "Deliver queued emails through the log sender",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				sent, err := a.Outbox.Flush(ctx, notification.LogSender{}, limit)
				fmt.Fprintf(cmd.OutOrStdout(), "sent %d\n", sent)
				return err
			})
		},
	}
	flush.Flags().IntVar(&limit, "limit", 100, "Maximum emails to deliver")

	var keep time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete delivered emails older than --keep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Outbox.PurgeSent(ctx, keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", n)
				return nil
			})
		},
	}
	purge.Flags().DurationVar(&keep, "keep", 30*24*time.Hour, "Retention for delivered emails")

	cmd.AddCommand(list, flush, purge)
	return cmd
}

func payoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Work the payout queue",
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List pending payouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				ps, err := a.Payouts.ListPending(ctx, operator)
				if err != nil {
					return err
				}
				return printJSON(cmd, ps)
			})
		},
	}

	var adminID string
	markPaid := &cobra.Command{
		Use:   "mark-paid <payout-id>",
		Short: "Mark a pending payout as paid on behalf of an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				actor, err := a.Users.ResolveActor(ctx, adminID)
				if err != nil {
					return fmt.Errorf("resolve admin %s: %w", adminID, err)
				}
				p, changed, err := a.Payouts.MarkPaid(ctx, actor, args[0])
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintln(cmd.OutOrStdout(), "already paid")
				}
				return printJSON(cmd, p)
			})
		},
	}
	markPaid.Flags().StringVar(&adminID, "admin", "", "Admin user id recorded as payer")
	_ = markPaid.MarkFlagRequired("admin")

	cmd.AddCommand(pending, markPaid)
	return cmd
}
