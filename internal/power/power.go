// Package power forwards system sleep and wake notifications.
package power

// Handler is notified around system suspend. Sleep must return only once the
// handler is ready for the machine to suspend.
type Handler interface {
	Sleep()
	Wake()
}
