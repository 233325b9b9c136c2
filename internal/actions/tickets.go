package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"changelog.dev/changelog/internal/jira"
	"changelog.dev/changelog/internal/runtime"
)

const ticketWrap = 50

// TicketsOptions contains options for the tickets command
type TicketsOptions struct {
	Projects []string
}

// TicketsAction prints every tracker ticket with its summary
func TicketsAction(ctx *runtime.Context, opts TicketsOptions) error {
	tickets, err := jira.NewClient(ctx.Config.JiraURL, ctx.HTTPClient).Tickets(ctx, opts.Projects...)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tickets))
	width := 0
	for k := range tickets {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	var b strings.Builder
	indent := strings.Repeat(" ", width+2)
	for _, k := range keys {
		lines := strings.Split(ansi.Wordwrap(tickets[k], ticketWrap, ""), "\n")
		fmt.Fprintf(&b, "%-*s  %s\n", width, k, strings.TrimSpace(lines[0]))
		for _, l := range lines[1:] {
			b.WriteString(indent + strings.TrimSpace(l) + "\n")
		}
	}
	ctx.Splog.Page(b.String())
	return nil
}
