// Package proto defines the JSON messages exchanged over the websocket.
//
// Every frame is an object with exactly one key naming the variant:
//
//	{"Relay": {"name": "Clever Badger", "json": "..."}}
//	{"Roster": {"name": "Clever Badger", "clients": [...]}}
package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeRelay  = "Relay"
	TypeRoster = "Roster"
)

// ErrMalformed is returned for frames that are not a single known variant.
var ErrMalformed = errors.New("malformed message")

// Relay carries an opaque payload between two clients.
type Relay struct {
	Name string `json:"name"`
	JSON string `json:"json"`
}

// RosterClient describes one connected client.
type RosterClient struct {
	Name      string  `json:"name"`
	Peer      *string `json:"peer"`
	UserAgent *string `json:"user_agent"`
}

// Roster tells a client its own name and who else is connected.
type Roster struct {
	Name    string         `json:"name"`
	Clients []RosterClient `json:"clients"`
}

// Envelope holds exactly one variant.
type Envelope struct {
	Relay  *Relay
	Roster *Roster
}

// Type returns the variant name, or "" for an empty envelope.
func (e Envelope) Type() string {
	switch {
	case e.Relay != nil:
		return TypeRelay
	case e.Roster != nil:
		return TypeRoster
	default:
		return ""
	}
}

// MarshalJSON encodes the envelope as a single-key object.
func (e Envelope) MarshalJSON() ([]byte, error) {
	switch {
	case e.Relay != nil && e.Roster != nil:
		return nil, fmt.Errorf("%w: both variants set", ErrMalformed)
	case e.Relay != nil:
		return json.Marshal(map[string]*Relay{TypeRelay: e.Relay})
	case e.Roster != nil:
		r := *e.Roster
		if r.Clients == nil {
			r.Clients = []RosterClient{}
		}
		return json.Marshal(map[string]*Roster{TypeRoster: &r})
	default:
		return nil, fmt.Errorf("%w: no variant set", ErrMalformed)
	}
}

// UnmarshalJSON decodes a single-key object.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: expected one variant, got %d", ErrMalformed, len(raw))
	}

	*e = Envelope{}
	for key, body := range raw {
		if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			return fmt.Errorf("%w: %s is null", ErrMalformed, key)
		}
		switch key {
		case TypeRelay:
			var r Relay
			if err := json.Unmarshal(body, &r); err != nil {
				return fmt.Errorf("%w: relay: %v", ErrMalformed, err)
			}
			e.Relay = &r
		case TypeRoster:
			var r Roster
			if err := json.Unmarshal(body, &r); err != nil {
				return fmt.Errorf("%w: roster: %v", ErrMalformed, err)
			}
			e.Roster = &r
		default:
			return fmt.Errorf("%w: unknown variant %q", ErrMalformed, key)
		}
	}
	return nil
}

// Decode parses one text frame.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		if errors.Is(err, ErrMalformed) {
			return Envelope{}, err
		}
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return e, nil
}
