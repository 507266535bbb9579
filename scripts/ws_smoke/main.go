// Command ws_smoke connects two clients to a running lobby and checks that a
// relay from one reaches the other with the sender's name stamped on it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	applog "github.com/vovakirdan/rtclobby/internal/log"
	"github.com/vovakirdan/rtclobby/internal/proto"
)

func main() {
	logger := applog.New("info")
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
	logger.Info().Msg("ws_smoke ok")
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "admission token, if the lobby requires one")
	payload := flag.String("payload", `{"hello":"from smoke test"}`, "relay payload")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := *addr
	if *token != "" {
		url += "?token=" + *token
	}

	first, firstName, err := connect(ctx, url)
	if err != nil {
		return fmt.Errorf("first client: %w", err)
	}
	defer first.Close(websocket.StatusNormalClosure, "bye")

	second, secondName, err := connect(ctx, url)
	if err != nil {
		return fmt.Errorf("second client: %w", err)
	}
	defer second.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("connected as %q and %q\n", firstName, secondName)

	if err := wsjson.Write(ctx, first, proto.Envelope{Relay: &proto.Relay{Name: secondName, JSON: *payload}}); err != nil {
		return fmt.Errorf("send relay: %w", err)
	}

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, second, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if env.Roster != nil {
			continue
		}
		if env.Relay.Name != firstName || env.Relay.JSON != *payload {
			return fmt.Errorf("unexpected relay %+v", *env.Relay)
		}
		fmt.Printf("relay from %q: %s\n", env.Relay.Name, env.Relay.JSON)
		return nil
	}
}

// connect dials the lobby and returns the name from the first roster.
func connect(ctx context.Context, url string) (*websocket.Conn, string, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("dial: %w", err)
	}

	var env proto.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		conn.CloseNow()
		return nil, "", fmt.Errorf("read roster: %w", err)
	}
	if env.Roster == nil {
		conn.CloseNow()
		return nil, "", errors.New("first message was not a roster")
	}

	fmt.Printf("roster for %q:\n", env.Roster.Name)
	for _, c := range env.Roster.Clients {
		fmt.Printf("  %s\n", c.Name)
	}
	return conn, env.Roster.Name, nil
}
