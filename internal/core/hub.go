package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/rtclobby/internal/names"
)

// DefaultMaxClients is the lobby capacity used when none is configured.
const DefaultMaxClients = 10

const commandQueueSize = 64

// HubConfig tunes a Hub. Zero values select defaults.
type HubConfig struct {
	MaxClients int
	Generator  names.Generator
	Observer   Observer
}

// Hub owns the table of connected clients and routes messages between them.
// All state is confined to the goroutine running Run; other goroutines talk
// to it through Admit, Receive and Disconnect.
type Hub struct {
	maxClients int
	generate   names.Generator
	observer   Observer
	log        *zerolog.Logger

	commands chan *command
	done     chan struct{}

	clients map[string]*Client
}

// NewHub creates a hub. Run must be started before clients are admitted.
func NewHub(cfg HubConfig, logger *zerolog.Logger) *Hub {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.Generator == nil {
		cfg.Generator = names.Generate
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		maxClients: cfg.MaxClients,
		generate:   cfg.Generator,
		observer:   cfg.Observer,
		log:        logger,
		commands:   make(chan *command, commandQueueSize),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case cmd := <-h.commands:
			h.handle(cmd)
		case <-ctx.Done():
			return
		}
	}
}

// Admit registers a new connection and assigns it a name.
// On success the returned roster already contains the new client.
// Refusals wrap ErrAdmissionDenied.
func (h *Hub) Admit(ctx context.Context, sender Sender, peer, userAgent *string) (Admission, error) {
	cmd := &command{
		kind:      commandAdmit,
		sender:    sender,
		peer:      peer,
		userAgent: userAgent,
		reply:     make(chan admitResult, 1),
	}
	if err := h.enqueue(ctx, cmd); err != nil {
		return Admission{}, err
	}
	select {
	case res := <-cmd.reply:
		return res.admission, res.err
	case <-ctx.Done():
		// The hub may still admit the client after we stop waiting.
		go h.releaseLate(cmd.reply)
		return Admission{}, ctx.Err()
	case <-h.done:
		return Admission{}, ErrHubClosed
	}
}

func (h *Hub) releaseLate(reply <-chan admitResult) {
	select {
	case res := <-reply:
		if res.err == nil {
			h.Disconnect(res.admission.Name)
		}
	case <-h.done:
	}
}

// Disconnect removes a client and broadcasts the new roster.
// Unknown names are ignored apart from the broadcast.
func (h *Hub) Disconnect(name string) {
	_ = h.enqueue(context.Background(), &command{kind: commandDisconnect, name: name})
}

// Receive accepts a message a client sent. Only relays are routed.
func (h *Hub) Receive(sender string, msg Message) {
	_ = h.enqueue(context.Background(), &command{kind: commandReceive, name: sender, message: msg})
}

func (h *Hub) enqueue(ctx context.Context, cmd *command) error {
	select {
	case h.commands <- cmd:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) handle(cmd *command) {
	switch cmd.kind {
	case commandAdmit:
		admission, err := h.admit(cmd)
		cmd.reply <- admitResult{admission: admission, err: err}
	case commandDisconnect:
		h.disconnect(cmd.name)
	case commandReceive:
		h.receive(cmd.name, cmd.message)
	}
}

func (h *Hub) admit(cmd *command) (Admission, error) {
	if len(h.clients) >= h.maxClients {
		h.log.Info().Int("connected", len(h.clients)).Msg("lobby full, refusing client")
		h.observer.AdmissionDenied(DenyLobbyFull)
		return Admission{}, ErrLobbyFull
	}

	name, ok := h.uniqueName()
	if !ok {
		h.log.Warn().Msg("could not find an unused name")
		h.observer.AdmissionDenied(DenyNamesExhausted)
		return Admission{}, ErrNamesExhausted
	}

	h.clients[name] = &Client{
		Name:      name,
		Sender:    cmd.sender,
		Peer:      cmd.peer,
		UserAgent: cmd.userAgent,
	}
	h.log.Info().Str("client", name).Int("connected", len(h.clients)).Msg("client admitted")
	h.observer.ClientAdmitted(len(h.clients))

	entries := h.entries()
	h.broadcastRoster(entries, name)

	return Admission{Name: name, Roster: Roster{Name: name, Clients: entries}}, nil
}

// uniqueName retries the generator up to maxClients+1 times after the first
// collision.
func (h *Hub) uniqueName() (string, bool) {
	name := h.generate()
	for retries := 0; ; retries++ {
		if _, taken := h.clients[name]; !taken {
			return name, true
		}
		if retries > h.maxClients {
			return "", false
		}
		name = h.generate()
	}
}

func (h *Hub) disconnect(name string) {
	if _, ok := h.clients[name]; ok {
		delete(h.clients, name)
		h.log.Info().Str("client", name).Int("connected", len(h.clients)).Msg("client disconnected")
		h.observer.ClientDisconnected(len(h.clients))
	} else {
		h.log.Debug().Str("client", name).Msg("disconnect for unknown client")
	}
	h.broadcastRoster(h.entries(), "")
}

func (h *Hub) receive(sender string, msg Message) {
	if msg.Kind != KindRelay || msg.Relay == nil {
		h.log.Warn().Str("client", sender).Stringer("kind", msg.Kind).Msg("discarding unexpected message")
		h.observer.MessageDropped(DropUnexpectedKind)
		return
	}

	// The recipient only ever sees the name the hub assigned to the sender.
	recipient := msg.Relay.Name
	out := RelayMessage(sender, msg.Relay.JSON)

	client, ok := h.clients[recipient]
	if !ok {
		h.log.Warn().Str("client", sender).Str("recipient", recipient).Msg("cannot relay to unknown client")
		h.observer.MessageDropped(DropUnknownRecipient)
		return
	}
	if err := client.Sender.Send(out); err != nil {
		h.log.Error().Err(err).Str("client", sender).Str("recipient", recipient).Msg("unable to relay message")
		h.observer.MessageDropped(DropDeliveryFailed)
		return
	}
	h.observer.RelayDelivered()
}
