package mailgun

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/providers"
)

func TestSendPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mg.example.org/messages", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "api", user)
		assert.Equal(t, "mg-key", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "carol@example.com", r.PostForm.Get("to"))
		assert.Equal(t, "Paper Birthdays <noreply@example.org>", r.PostForm.Get("from"))
		assert.Equal(t, "plain", r.PostForm.Get("text"))
		assert.Equal(t, "<b>html</b>", r.PostForm.Get("html"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(&config.Config{
		MailgunAPIKey: "mg-key", MailgunDomain: "mg.example.org", MailgunBaseURL: srv.URL,
		FromEmail: "noreply@example.org", FromName: "Paper Birthdays",
	}, zap.NewNop())

	err := s.Send(context.Background(), providers.Message{To: "carol@example.com", Subject: "S", HTML: "<b>html</b>", Text: "plain"})
	require.NoError(t, err)
}

func TestSendRequiresDomain(t *testing.T) {
	s := NewSender(&config.Config{MailgunAPIKey: "k"}, zap.NewNop())
	assert.ErrorContains(t, s.Send(context.Background(), providers.Message{}), "MAILGUN_DOMAIN")
}
