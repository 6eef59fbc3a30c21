package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/services"
)

var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorAccent  = lipgloss.Color("#FFD700")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#8C8C8C")
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleFulfilled = lipgloss.NewStyle().Foreground(colorSuccess)
	styleOpen      = lipgloss.NewStyle().Foreground(colorAccent)
	styleWarning   = lipgloss.NewStyle().Foreground(colorDanger)
	styleMuted     = lipgloss.NewStyle().Foreground(colorMuted)
)

// printSummary writes one row per order with times relative to start.
func printSummary(out io.Writer, name string, start time.Time, snap services.Snapshot) {
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintln(out, styleTitle.Render(fmt.Sprintf("%s: %d orders, %s simulated", name, len(snap.Orders), formatOffset(snap.Now.Sub(start)))))
	fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%-6s %-10s %-8s %-8s %-24s %s", "order", "state", "start", "end", "delivered", "unsatisfied")))

	delivered := make(map[int][]domain.LineItem, len(snap.Carts))
	for _, c := range snap.Carts {
		delivered[c.OrderID] = c.Delivered
	}

	for _, o := range snap.Orders {
		end := "-"
		if o.EndAt != nil {
			end = formatOffset(o.EndAt.Sub(start))
		}

		state := fmt.Sprintf("%-10s", o.State)
		if o.State == domain.OrderFulfilled {
			state = styleFulfilled.Render(state)
		} else {
			state = styleOpen.Render(state)
		}

		fmt.Fprintf(out, "%-6d %s %-8s %-8s %-24s %s\n",
			o.OrderID,
			state,
			formatOffset(o.StartAt.Sub(start)),
			end,
			formatItems(delivered[o.OrderID]),
			formatItems(o.Unsatisfied),
		)
		for _, w := range o.Warnings {
			fmt.Fprintln(out, styleWarning.Render("       warning: "+w))
		}
	}

	var stock []string
	for _, sh := range snap.Shelves {
		if sh.Goods == "" {
			continue
		}
		stock = append(stock, fmt.Sprintf("shelf %d %d %s", sh.ShelfID, sh.Quantity, sh.Goods))
	}
	if len(stock) > 0 {
		fmt.Fprintln(out, styleMuted.Render("stock left: "+strings.Join(stock, ", ")))
	}
}

func formatItems(items []domain.LineItem) string {
	if len(items) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(items))
	for _, li := range items {
		parts = append(parts, fmt.Sprintf("%d %s", li.Quantity, li.Goods))
	}
	return strings.Join(parts, ", ")
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
