package core

// Observer is notified of hub activity. Calls are made from the hub
// goroutine and must return quickly.
type Observer interface {
	ClientAdmitted(connected int)
	AdmissionDenied(reason string)
	ClientDisconnected(connected int)
	RelayDelivered()
	MessageDropped(reason string)
}

type nopObserver struct{}

func (nopObserver) ClientAdmitted(int) {}
func (nopObserver) AdmissionDenied(string) {}
func (nopObserver) ClientDisconnected(int) {}
func (nopObserver) RelayDelivered() {}
func (nopObserver) MessageDropped(string) {}
