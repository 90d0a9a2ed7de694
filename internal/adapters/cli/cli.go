// Package cli is the operator command line: migrations, reference data
// seeding and one-shot order commands against the same ApplicationService
// the HTTP server uses.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"order-service/internal/app"
	"order-service/internal/core"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Deps supplies the command tree with its collaborators. Open is called
// lazily so commands that never touch the service (migrate) do not need a pool.
type Deps struct {
	Open        func(ctx context.Context) (app.ApplicationService, func(), error)
	MigrateUp   func() error
	MigrateDown func() error
}

// NewRootCommand builds the full command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "orderctl",
		Short:         "Order service operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrateCommand(deps),
		seedCommand(deps),
		statsCommand(deps),
		catalogCommand(deps),
		orderCommand(deps),
	)
	return root
}

// withService opens the service for the duration of fn.
func withService(cmd *cobra.Command, deps Deps, fn func(svc app.ApplicationService) error) error {
	if deps.Open == nil {
		return fmt.Errorf("no service configured")
	}
	svc, closeFn, err := deps.Open(cmd.Context())
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(svc)
}

// ── Migrations ───────────────────────────────────────────────────────────────

func migrateCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "migrate all the way up",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := deps.MigrateUp(); err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrated up")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := deps.MigrateDown(); err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrated down")
				return nil
			},
		},
	)
	return cmd
}

// ── Reference data ───────────────────────────────────────────────────────────

func seedCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default statuses, delivery and payment methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				if err := svc.SeedReferenceData(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reference data seeded.")
				return nil
			})
		},
	}
}

var catalogAliases = map[string]core.CatalogKind{
	"statuses": core.CatalogOrderStatus,
	"status":   core.CatalogOrderStatus,
	"delivery": core.CatalogDeliveryMethod,
	"payment":  core.CatalogPaymentMethod,
}

func catalogCommand(deps Deps) *cobra.Command {
	var activeOnly bool
	list := &cobra.Command{
		Use:       "list statuses|delivery|payment",
		Short:     "List one reference catalog",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"statuses", "delivery", "payment"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := catalogAliases[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown catalog %q: use statuses, delivery or payment", args[0])
			}
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				result, err := svc.ListReferenceData(cmd.Context(), kind, activeOnly)
				if err != nil {
					return err
				}
				printReference(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	list.Flags().BoolVar(&activeOnly, "active-only", false, "hide inactive entries")

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect reference data",
	}
	cmd.AddCommand(list)
	return cmd
}

func statsCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print order counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				stats, err := svc.GetOrderStats(cmd.Context())
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

// ── Orders ───────────────────────────────────────────────────────────────────

func orderCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "order",
		Aliases: []string{"orders"},
		Short:   "Create, inspect and move orders",
	}
	cmd.AddCommand(
		orderCreateCommand(deps),
		orderGetCommand(deps),
		orderListCommand(deps),
		orderHistoryCommand(deps),
		orderTransitionCommand(deps),
	)
	return cmd
}

func orderCreateCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create an order from a JSON document on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req app.CreateOrderRequest
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&req); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				result, err := svc.CreateOrder(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result.Order)
			})
		},
	}
}

func orderGetCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|order-number>",
		Short: "Print one order with its items, address and payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				result, err := svc.GetOrder(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result.Order)
			})
		},
	}
}

func orderListCommand(deps Deps) *cobra.Command {
	var (
		req              app.ListOrdersRequest
		dateFrom, dateTo string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.DateFrom, err = app.ParseTimeBound(dateFrom, false); err != nil {
				return fmt.Errorf("invalid --date-from %q: %w", dateFrom, err)
			}
			if req.DateTo, err = app.ParseTimeBound(dateTo, true); err != nil {
				return fmt.Errorf("invalid --date-to %q: %w", dateTo, err)
			}
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				result, err := svc.ListOrders(cmd.Context(), req)
				if err != nil {
					return err
				}
				printOrderList(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&req.Skip, "skip", 0, "rows to skip")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "page size")
	cmd.Flags().StringVar(&req.Search, "search", "", "match order number, customer name or email")
	cmd.Flags().StringVar(&req.Status, "status", "", "status id or code")
	cmd.Flags().StringVar(&dateFrom, "date-from", "", "created at or after (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&dateTo, "date-to", "", "created at or before (YYYY-MM-DD covers the whole day)")
	return cmd
}

func orderHistoryCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id|order-number>",
		Short: "Print the status history of an order, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				result, err := svc.GetStatusHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

func orderTransitionCommand(deps Deps) *cobra.Command {
	var actor, notes string
	cmd := &cobra.Command{
		Use:   "transition <id|order-number> <status>",
		Short: "Move an order to another status (id or code)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.TransitionStatusRequest{ActorDetails: actor, Notes: notes}
			if _, err := uuid.Parse(args[1]); err == nil {
				req.StatusID = args[1]
			} else {
				req.StatusCode = strings.ToUpper(args[1])
			}
			return withService(cmd, deps, func(svc app.ApplicationService) error {
				result, err := svc.TransitionOrderStatus(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				o := result.Order
				status := o.StatusID.String()
				if o.Status != nil {
					status = o.Status.Code
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s.\n", o.OrderNumber, status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "who made the change")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text note stored with the history entry")
	return cmd
}
