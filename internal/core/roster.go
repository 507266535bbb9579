package core

import (
	"slices"
	"strings"
)

// entries projects the client table into a name-sorted roster.
func (h *Hub) entries() []RosterEntry {
	out := make([]RosterEntry, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c.entry())
	}
	slices.SortFunc(out, func(a, b RosterEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// broadcastRoster sends every client its own view of entries, skipping except.
// Slow or closed connections lose the update.
func (h *Hub) broadcastRoster(entries []RosterEntry, except string) {
	for name, c := range h.clients {
		if except != "" && name == except {
			continue
		}
		if err := c.Sender.Send(RosterMessage(Roster{Name: name, Clients: entries})); err != nil {
			h.log.Error().Err(err).Str("client", name).Msg("unable to send roster")
			h.observer.MessageDropped(DropDeliveryFailed)
		}
	}
}
