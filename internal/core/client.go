package core

// Sender delivers a message to one connection.
// Implementations are owned by the transport and must not block; a full or
// closed connection is reported through the returned error.
type Sender interface {
	Send(msg Message) error
}

// Client is a connected participant as seen by the hub.
// It is created on admission and never modified afterwards.
type Client struct {
	Name      string
	Sender    Sender
	Peer      *string
	UserAgent *string
}

func (c *Client) entry() RosterEntry {
	return RosterEntry{
		Name:      c.Name,
		Peer:      c.Peer,
		UserAgent: c.UserAgent,
	}
}
