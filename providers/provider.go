package providers

import "context"

// Message ist eine fertig zusammengestellte E-Mail.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender ist das Interface, das jeder E-Mail-Anbieter (z.B. Resend, SendGrid) implementieren muss.
type Sender interface {
	// Send stellt die Nachricht zu. Ein Fehler bedeutet: nicht zugestellt.
	Send(ctx context.Context, msg Message) error

	// Name gibt den eindeutigen Namen des Anbieters zurück (z.B. "resend").
	Name() string
}
