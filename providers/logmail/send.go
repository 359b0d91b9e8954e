package logmail

import (
	"context"

	"go.uber.org/zap"

	"paper-birthdays/providers"
)

// Sender schreibt Nachrichten nur ins Log. Für lokale Entwicklung und Dry-Runs.
type Sender struct {
	Logger *zap.Logger
}

// NewSender erstellt einen neuen Log-Sender.
func NewSender(logger *zap.Logger) *Sender {
	return &Sender{Logger: logger}
}

// Name gibt den Namen des Anbieters zurück.
func (s *Sender) Name() string {
	return "log"
}

// Send protokolliert die Nachricht und meldet immer Erfolg.
func (s *Sender) Send(_ context.Context, msg providers.Message) error {
	s.Logger.Info("Email not sent (log sender)",
		zap.String("subject", msg.Subject),
		zap.Int("text_bytes", len(msg.Text)),
		zap.Int("html_bytes", len(msg.HTML)))
	s.Logger.Debug("Email recipient", zap.String("to", msg.To))
	return nil
}
