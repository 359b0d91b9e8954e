package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/providers"
	"paper-birthdays/storage"
	"paper-birthdays/storage/storagetest"
)

// fakeSender merkt sich Nachrichten und scheitert für Empfänger in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []providers.Message
	failFor map[string]bool
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, msg providers.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("provider rejected message")
	}
	f.sent = append(f.sent, msg)
	return nil
}

// seqTokens liefert vorhersagbare, eindeutige Tokens.
type seqTokens struct {
	mu sync.Mutex
	n  int
}

func (s *seqTokens) NewToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("token-%03d", s.n), nil
}

func testConfig() *config.Config {
	return &config.Config{
		SiteURL:     "https://example.org",
		Timezone:    "UTC",
		SearchLimit: 20,
	}
}

type fixture struct {
	papers *storage.PaperStore
	subs   *storage.SubscriptionStore
	sender *fakeSender
	svc    *SubscriptionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.NewDB(t)
	storagetest.SeedPapers(t, db,
		storagetest.Paper("P", "Attention Is All You Need", 2017, 90000, "06-15"),
		storagetest.Paper("P2", "Second", 2001, 10, "06-15"),
		storagetest.Paper("P3", "Third", 2002, 10, "01-02"),
		storagetest.Paper("P4", "Fourth", 2003, 10, "03-04"),
		storagetest.Paper("P5", "Fifth", 2004, 10, "05-06"),
		storagetest.Paper("P6", "Sixth", 2005, 10, "07-08"),
		storagetest.Paper("NODATE", "Undated", 2006, 10, ""),
	)
	f := &fixture{
		papers: storage.NewPaperStore(db),
		subs:   storage.NewSubscriptionStore(db),
		sender: &fakeSender{failFor: map[string]bool{}},
	}
	f.svc = NewSubscriptionService(testConfig(), zap.NewNop(), f.papers, f.subs, f.sender)
	f.svc.Tokens = &seqTokens{}
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return f
}
