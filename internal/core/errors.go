package core

import (
	"errors"
	"fmt"
)

// Drop reasons reported to the Observer.
const (
	DropUnknownRecipient = "unknown_recipient"
	DropDeliveryFailed   = "delivery_failed"
	DropUnexpectedKind   = "unexpected_kind"
)

// Denial reasons reported to the Observer.
const (
	DenyLobbyFull      = "lobby_full"
	DenyNamesExhausted = "names_exhausted"
)

var (
	// ErrAdmissionDenied is the parent of every admission refusal.
	ErrAdmissionDenied = errors.New("admission denied")
	// ErrLobbyFull means the hub already holds MaxClients clients.
	ErrLobbyFull = fmt.Errorf("%w: lobby full", ErrAdmissionDenied)
	// ErrNamesExhausted means no unused name was found within the retry budget.
	ErrNamesExhausted = fmt.Errorf("%w: no unique name available", ErrAdmissionDenied)
	// ErrHubClosed is returned once Run has exited.
	ErrHubClosed = errors.New("hub closed")
)
