package core

// MessageKind tags the variant carried by a Message.
type MessageKind int

const (
	// KindRelay carries an opaque payload between two clients.
	KindRelay MessageKind = iota
	// KindRoster carries a roster snapshot from the hub to a client.
	KindRoster
)

func (k MessageKind) String() string {
	switch k {
	case KindRelay:
		return "relay"
	case KindRoster:
		return "roster"
	default:
		return "unknown"
	}
}

// Relay is a payload routed between clients by name.
// From a client, Name is the recipient. Towards a client, Name is the sender.
type Relay struct {
	Name string
	JSON string
}

// RosterEntry describes one connected client.
type RosterEntry struct {
	Name      string
	Peer      *string
	UserAgent *string
}

// Roster is a snapshot of connected clients sorted by name.
// Name is the identity of the client receiving the snapshot.
// Clients may be shared between snapshots and must not be modified.
type Roster struct {
	Name    string
	Clients []RosterEntry
}

// Message is exchanged between the hub and transports.
// Exactly one of Relay or Roster is set, as indicated by Kind.
type Message struct {
	Kind   MessageKind
	Relay  *Relay
	Roster *Roster
}

// RelayMessage wraps a relay payload.
func RelayMessage(name, json string) Message {
	return Message{Kind: KindRelay, Relay: &Relay{Name: name, JSON: json}}
}

// RosterMessage wraps a roster snapshot.
func RosterMessage(r Roster) Message {
	return Message{Kind: KindRoster, Roster: &r}
}
