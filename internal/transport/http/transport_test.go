package http

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/rtclobby/internal/core"
	"github.com/vovakirdan/rtclobby/internal/proto"
)

func TestOutboundNeverBlocks(t *testing.T) {
	out := newOutbound(2)

	for i := 0; i < 2; i++ {
		if err := out.Send(core.RelayMessage("a", "b")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := out.Send(core.RelayMessage("a", "b")); !errors.Is(err, ErrOutboundFull) {
		t.Fatalf("expected ErrOutboundFull, got %v", err)
	}

	<-out.queue
	out.close()
	if err := out.Send(core.RelayMessage("a", "b")); !errors.Is(err, ErrOutboundClosed) {
		t.Fatalf("expected ErrOutboundClosed, got %v", err)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2)
	rl.now = func() time.Time { return now }

	if !rl.allow() || !rl.allow() {
		t.Fatal("first two events should pass")
	}
	if rl.allow() {
		t.Fatal("third event in the window should be limited")
	}

	now = now.Add(time.Minute)
	if !rl.allow() {
		t.Fatal("limit should reset after the window")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !rl.allow() {
			t.Fatal("disabled limiter must allow everything")
		}
	}
	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter must allow")
	}
}

func TestSummarizeUserAgent(t *testing.T) {
	if got := summarizeUserAgent(""); got != nil {
		t.Fatalf("empty agent should be nil, got %q", *got)
	}

	got := summarizeUserAgent(firefoxUA)
	if got == nil {
		t.Fatal("expected summary")
	}
	lines := strings.Split(*got, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Firefox 120") || !strings.Contains(lines[1], "Linux") {
		t.Fatalf("unexpected summary %q", *got)
	}

	bot := "Googlebot/2.1 (+http://www.google.com/bot.html)"
	if got := summarizeUserAgent(bot); got == nil || *got != bot {
		t.Fatalf("bots should be kept verbatim, got %v", got)
	}
}

func TestMapperRoundTrip(t *testing.T) {
	in := inboundToMessage(proto.Envelope{Relay: &proto.Relay{Name: "Beta", JSON: "X"}})
	if in.Kind != core.KindRelay || in.Relay.Name != "Beta" || in.Relay.JSON != "X" {
		t.Fatalf("unexpected inbound relay: %+v", in)
	}

	roster := inboundToMessage(proto.Envelope{Roster: &proto.Roster{Name: "Beta"}})
	if roster.Kind != core.KindRoster {
		t.Fatalf("roster from client should map to KindRoster, got %v", roster.Kind)
	}

	peer := "10.0.0.2:1234"
	out := outboundFromMessage(core.RosterMessage(core.Roster{
		Name:    "Alpha",
		Clients: []core.RosterEntry{{Name: "Alpha", Peer: &peer}},
	}))
	if out.Roster == nil || out.Roster.Name != "Alpha" || len(out.Roster.Clients) != 1 {
		t.Fatalf("unexpected outbound roster: %+v", out)
	}
	if c := out.Roster.Clients[0]; c.Name != "Alpha" || c.Peer != &peer || c.UserAgent != nil {
		t.Fatalf("unexpected roster entry: %+v", c)
	}

	relay := outboundFromMessage(core.RelayMessage("Alpha", "X"))
	if relay.Relay == nil || *relay.Relay != (proto.Relay{Name: "Alpha", JSON: "X"}) {
		t.Fatalf("unexpected outbound relay: %+v", relay)
	}
}
