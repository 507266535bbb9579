package core

// commandKind describes what a transport wants the hub to do.
type commandKind int

const (
	commandAdmit commandKind = iota
	commandDisconnect
	commandReceive
)

// command is a single request processed by the hub goroutine.
type command struct {
	kind commandKind

	// admit
	sender    Sender
	peer      *string
	userAgent *string
	reply     chan admitResult

	// disconnect, receive
	name    string
	message Message
}

type admitResult struct {
	admission Admission
	err       error
}

// Admission is the outcome of a successful Admit.
type Admission struct {
	Name   string
	Roster Roster
}
