package email

// Provider delivers a single message to an address. Delivery is best-effort
// from the caller's point of view; the dispatcher logs failures and moves on.
type Provider interface {
	Send(email *Email) error
}
