package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"order-service/internal/app"
	"order-service/internal/core"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReference(w io.Writer, result *app.ReferenceListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  %s\n", strings.ToUpper(result.Kind.Label()))
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  %-20s %-28s %-6s %s\n", "CODE", "NAME", "ACTIVE", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, e := range result.Entries {
		active := "yes"
		if !e.IsActive {
			active = "no"
		}
		fmt.Fprintf(w, "  %-20s %-28s %-6s %s\n", e.Code, e.Name, active, e.ID)
	}
	fmt.Fprintln(w, strings.Repeat("=", 78))
}

func printStats(w io.Writer, stats *core.OrderStats) {
	rows := []struct {
		label string
		n     int
	}{
		{"New", stats.NewOrders},
		{"Pending", stats.PendingOrders},
		{"Processing", stats.ProcessingOrders},
		{"Shipped", stats.ShippedOrders},
		{"Delivered", stats.DeliveredOrders},
		{"Cancelled", stats.CancelledOrders},
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 32))
	fmt.Fprintf(w, "  %-28s\n", "ORDER STATISTICS")
	fmt.Fprintln(w, strings.Repeat("=", 32))
	for _, r := range rows {
		fmt.Fprintf(w, "  %-20s %9d\n", r.label, r.n)
	}
	fmt.Fprintln(w, strings.Repeat("-", 32))
	fmt.Fprintf(w, "  %-20s %9d\n", "Total", stats.TotalOrders)
	fmt.Fprintln(w, strings.Repeat("=", 32))
}

func printOrderList(w io.Writer, result *app.OrderListResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-22s %-12s %-24s %14s  %s\n", "NUMBER", "STATUS", "CUSTOMER", "TOTAL", "CREATED")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, o := range result.Orders {
		status := o.StatusID.String()
		if o.Status != nil {
			status = o.Status.Code
		}
		fmt.Fprintf(w, "  %-22s %-12s %-24s %10s %-3s  %s\n",
			o.OrderNumber, status, truncate(o.CustomerName, 24),
			o.TotalAmount.StringFixed(2), o.Currency, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, strings.Repeat("-", 96))
	fmt.Fprintf(w, "  showing %d of %d\n", len(result.Orders), result.Total)
}

func printHistory(w io.Writer, result *app.StatusHistoryResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-25s %-12s %-20s %s\n", "CHANGED AT", "STATUS", "ACTOR", "NOTES")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, e := range result.Entries {
		status := e.StatusID.String()
		if e.Status != nil {
			status = e.Status.Code
		}
		fmt.Fprintf(w, "  %-25s %-12s %-20s %s\n",
			e.ChangedAt.Format("2006-01-02 15:04:05.000"), status, truncate(e.ActorDetails, 20), e.Notes)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
