package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const renderWidth = 72

// RenderText writes a plain text roster of the response, one block per
// group followed by the unassigned players.
func RenderText(w io.Writer, resp *DistributeResponse) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Strategy: %s", resp.Strategy)
	if !resp.Deterministic {
		b.WriteString(" (order varies between runs)")
	}
	b.WriteString("\n")
	for _, g := range resp.Groups {
		fmt.Fprintf(&b, "\n%s #%d (%d/%d)", g.Tier, g.Index+1, len(g.Players), g.Capacity)
		if g.Ordinal != nil {
			fmt.Fprintf(&b, " ordinal %.2f", *g.Ordinal)
		}
		b.WriteString("\n")

		lines := make([]string, 0, len(g.Players))
		for i, p := range g.Players {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, playerLabel(p.ID, p.DisplayName)))
		}
		b.WriteString(indent.String(strings.Join(lines, "\n"), 2))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nUnassigned: %d\n", resp.Unassigned)
	if len(resp.UnassignedPlayers) > 0 {
		names := make([]string, 0, len(resp.UnassignedPlayers))
		for _, p := range resp.UnassignedPlayers {
			names = append(names, playerLabel(p.ID, p.DisplayName))
		}
		b.WriteString(indent.String(wordwrap.String(strings.Join(names, ", "), renderWidth-2), 2))
		b.WriteString("\n")
	}
	if resp.Pruned > 0 {
		fmt.Fprintf(&b, "Pruned groups: %d\n", resp.Pruned)
	}
	if resp.Anomaly {
		b.WriteString("WARNING: snake draft sweep limit reached; groups may be incomplete.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func playerLabel(id, displayName string) string {
	if displayName == "" || displayName == id {
		return id
	}
	return fmt.Sprintf("%s (%s)", displayName, id)
}
