package http

import (
	"github.com/vovakirdan/rtclobby/internal/core"
	"github.com/vovakirdan/rtclobby/internal/proto"
)

func inboundToMessage(env proto.Envelope) core.Message {
	switch {
	case env.Relay != nil:
		return core.RelayMessage(env.Relay.Name, env.Relay.JSON)
	case env.Roster != nil:
		// Forwarded so the hub can log and discard it.
		return core.RosterMessage(core.Roster{Name: env.Roster.Name})
	default:
		return core.Message{Kind: -1}
	}
}

func outboundFromMessage(msg core.Message) proto.Envelope {
	switch msg.Kind {
	case core.KindRelay:
		return proto.Envelope{Relay: &proto.Relay{Name: msg.Relay.Name, JSON: msg.Relay.JSON}}
	case core.KindRoster:
		return proto.Envelope{Roster: rosterToProto(msg.Roster)}
	default:
		return proto.Envelope{}
	}
}

func rosterToProto(r *core.Roster) *proto.Roster {
	clients := make([]proto.RosterClient, 0, len(r.Clients))
	for _, c := range r.Clients {
		clients = append(clients, proto.RosterClient{
			Name:      c.Name,
			Peer:      c.Peer,
			UserAgent: c.UserAgent,
		})
	}
	return &proto.Roster{Name: r.Name, Clients: clients}
}
