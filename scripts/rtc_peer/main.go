// Command rtc_peer joins a lobby as a WebRTC peer. It answers incoming offers
// and, with -call, offers a data channel to the named client. Session
// descriptions travel as relay payloads; ICE gathering completes before a
// description is sent, so no trickle candidates are exchanged.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	applog "github.com/vovakirdan/rtclobby/internal/log"
	"github.com/vovakirdan/rtclobby/internal/proto"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "admission token, if the lobby requires one")
	call := flag.String("call", "", "name of a lobby client to call")
	stun := flag.String("stun", "stun:stun.l.google.com:19302", "STUN server URL, empty to disable")
	greeting := flag.String("message", "hello over WebRTC", "text sent once the data channel opens")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := applog.New(*level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ice []webrtc.ICEServer
	if *stun != "" {
		ice = []webrtc.ICEServer{{URLs: []string{*stun}}}
	}

	url := *addr
	if *token != "" {
		url += "?token=" + *token
	}

	if err := run(ctx, url, *call, *greeting, ice, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("rtc_peer failed")
		os.Exit(1)
	}
}

type peer struct {
	conn     *websocket.Conn
	name     string
	greeting string
	ice      []webrtc.ICEServer
	log      *zerolog.Logger

	mu    sync.Mutex
	conns map[string]*webrtc.PeerConnection
}

func run(ctx context.Context, addr, call, greeting string, ice []webrtc.ICEServer, logger *zerolog.Logger) error {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var first proto.Envelope
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	if first.Roster == nil {
		return errors.New("lobby did not send a roster")
	}

	p := &peer{
		conn:     conn,
		name:     first.Roster.Name,
		greeting: greeting,
		ice:      ice,
		log:      logger,
		conns:    make(map[string]*webrtc.PeerConnection),
	}
	defer p.closeAll()

	p.log.Info().Str("name", p.name).Msg("joined lobby")
	p.printRoster(first.Roster)

	if call != "" {
		if err := p.offer(ctx, call); err != nil {
			return fmt.Errorf("call %s: %w", call, err)
		}
	}

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch {
		case env.Roster != nil:
			p.printRoster(env.Roster)
		case env.Relay != nil:
			if err := p.handleSignal(ctx, env.Relay.Name, env.Relay.JSON); err != nil {
				p.log.Warn().Err(err).Str("from", env.Relay.Name).Msg("signal failed")
			}
		}
	}
}

func (p *peer) printRoster(r *proto.Roster) {
	for _, c := range r.Clients {
		ev := p.log.Info().Str("client", c.Name)
		if c.Name == p.name {
			ev = ev.Bool("self", true)
		}
		if c.UserAgent != nil {
			ev = ev.Str("user_agent", *c.UserAgent)
		}
		ev.Msg("roster")
	}
}

func (p *peer) newConnection(remote string) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: p.ice})
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		p.log.Info().Str("remote", remote).Stringer("state", state).Msg("peer connection state")
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			p.forget(remote, pc)
		}
	})

	p.mu.Lock()
	if old, ok := p.conns[remote]; ok {
		_ = old.Close()
	}
	p.conns[remote] = pc
	p.mu.Unlock()
	return pc, nil
}

func (p *peer) forget(remote string, pc *webrtc.PeerConnection) {
	p.mu.Lock()
	if p.conns[remote] == pc {
		delete(p.conns, remote)
	}
	p.mu.Unlock()
}

func (p *peer) lookup(remote string) *webrtc.PeerConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[remote]
}

func (p *peer) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for remote, pc := range p.conns {
		_ = pc.Close()
		delete(p.conns, remote)
	}
}

func (p *peer) attach(dc *webrtc.DataChannel, remote string) {
	dc.OnOpen(func() {
		p.log.Info().Str("remote", remote).Str("label", dc.Label()).Msg("data channel open")
		if err := dc.SendText(fmt.Sprintf("%s (from %s)", p.greeting, p.name)); err != nil {
			p.log.Warn().Err(err).Msg("send greeting")
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		p.log.Info().Str("remote", remote).Str("text", string(msg.Data)).Msg("data channel message")
	})
}

func (p *peer) offer(ctx context.Context, remote string) error {
	pc, err := p.newConnection(remote)
	if err != nil {
		return err
	}
	dc, err := pc.CreateDataChannel("lobby", nil)
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	p.attach(dc, remote)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return p.sendLocal(ctx, pc, offer, remote)
}

func (p *peer) handleSignal(ctx context.Context, from, payload string) error {
	var sd webrtc.SessionDescription
	if err := json.Unmarshal([]byte(payload), &sd); err != nil {
		return fmt.Errorf("decode session description: %w", err)
	}

	switch sd.Type {
	case webrtc.SDPTypeOffer:
		pc, err := p.newConnection(from)
		if err != nil {
			return err
		}
		pc.OnDataChannel(func(dc *webrtc.DataChannel) {
			p.attach(dc, from)
		})
		if err := pc.SetRemoteDescription(sd); err != nil {
			return fmt.Errorf("set remote offer: %w", err)
		}
		answer, err := pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		return p.sendLocal(ctx, pc, answer, from)
	case webrtc.SDPTypeAnswer:
		pc := p.lookup(from)
		if pc == nil {
			return fmt.Errorf("answer from %s without an offer", from)
		}
		if err := pc.SetRemoteDescription(sd); err != nil {
			return fmt.Errorf("set remote answer: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported description type %s", sd.Type)
	}
}

// sendLocal applies desc, waits for ICE gathering and relays the result.
func (p *peer) sendLocal(ctx context.Context, pc *webrtc.PeerConnection, desc webrtc.SessionDescription, remote string) error {
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(desc); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		return ctx.Err()
	}

	payload, err := json.Marshal(pc.LocalDescription())
	if err != nil {
		return fmt.Errorf("encode session description: %w", err)
	}
	p.log.Info().Str("remote", remote).Stringer("type", desc.Type).Msg("sending session description")
	return wsjson.Write(ctx, p.conn, proto.Envelope{Relay: &proto.Relay{Name: remote, JSON: string(payload)}})
}
