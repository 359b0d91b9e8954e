package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-birthdays/models"
	"paper-birthdays/storage"
	"paper-birthdays/storage/storagetest"
)

func newSub(email, paperID, suffix string) *models.Subscription {
	return &models.Subscription{
		Email:               email,
		PaperID:             paperID,
		PaperTitle:          "Title " + paperID,
		PublicationMonthDay: "06-15",
		VerificationToken:   "verify-" + suffix,
		UnsubscribeToken:    "unsub-" + suffix,
	}
}

func TestCreateEnforcesOneActivePerPair(t *testing.T) {
	store := storage.NewSubscriptionStore(storagetest.NewDB(t))
	ctx := context.Background()

	first := newSub("alice@example.com", "p1", "1")
	require.NoError(t, store.Create(ctx, first))
	assert.NotZero(t, first.ID)

	err := store.Create(ctx, newSub("alice@example.com", "p1", "2"))
	assert.ErrorIs(t, err, models.ErrDuplicate)

	ok, err := store.MarkUnsubscribed(ctx, "unsub-1", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	// Nach der Abmeldung ist das Paar wieder frei.
	require.NoError(t, store.Create(ctx, newSub("alice@example.com", "p1", "3")))

	n, err := store.CountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCreateRejectsReusedToken(t *testing.T) {
	store := storage.NewSubscriptionStore(storagetest.NewDB(t))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newSub("a@example.com", "p1", "same")))
	err := store.Create(ctx, newSub("b@example.com", "p2", "same"))
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestFindActive(t *testing.T) {
	store := storage.NewSubscriptionStore(storagetest.NewDB(t))
	ctx := context.Background()

	_, err := store.FindActive(ctx, "alice@example.com", "p1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, store.Create(ctx, newSub("alice@example.com", "p1", "1")))
	sub, err := store.FindActive(ctx, "alice@example.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCreated, sub.State())
}

func TestMarkVerifiedIsConditional(t *testing.T) {
	store := storage.NewSubscriptionStore(storagetest.NewDB(t))
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSub("alice@example.com", "p1", "1")))
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, err := store.MarkVerified(ctx, "verify-1", at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkVerified(ctx, "verify-1", at)
	require.NoError(t, err)
	assert.False(t, ok)

	// Der Bestätigungstoken öffnet keine Abmeldung.
	ok, err = store.MarkUnsubscribed(ctx, "verify-1", at)
	require.NoError(t, err)
	assert.False(t, ok)

	sub, err := store.ByVerificationToken(ctx, "verify-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateVerified, sub.State())
	require.NotNil(t, sub.VerifiedAt)
	assert.True(t, at.Equal(*sub.VerifiedAt))

	_, err = store.ByUnsubscribeToken(ctx, "verify-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarkVerifiedSkipsUnsubscribed(t *testing.T) {
	store := storage.NewSubscriptionStore(storagetest.NewDB(t))
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSub("alice@example.com", "p1", "1")))

	ok, err := store.MarkUnsubscribed(ctx, "unsub-1", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.MarkVerified(ctx, "verify-1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDueAndMarkSent(t *testing.T) {
	db := storagetest.NewDB(t)
	storagetest.SeedPapers(t, db,
		storagetest.Paper("p1", "Birthday Paper", 1998, 12345, "06-15"),
		storagetest.Paper("p2", "Second Paper", 2001, 1, "06-15"),
	)
	store := storage.NewSubscriptionStore(db)
	ctx := context.Background()

	verified := newSub("alice@example.com", "p1", "1")
	pending := newSub("bob@example.com", "p1", "2")
	cancelled := newSub("carol@example.com", "p2", "3")
	for _, s := range []*models.Subscription{verified, pending, cancelled} {
		require.NoError(t, store.Create(ctx, s))
	}
	for _, tok := range []string{"verify-1", "verify-3"} {
		ok, err := store.MarkVerified(ctx, tok, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := store.MarkUnsubscribed(ctx, "unsub-3", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	due, err := store.Due(ctx, "06-15", 2024)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, verified.ID, due[0].ID)
	assert.Equal(t, "alice@example.com", due[0].Email)
	assert.Equal(t, "unsub-1", due[0].UnsubscribeToken)
	assert.Equal(t, 1998, due[0].PaperYear)
	assert.Equal(t, 12345, due[0].CitationCount)
	assert.Equal(t, "https://example.org/papers/p1", due[0].PaperURL)
	assert.Equal(t, models.FieldTags{"Computer Science"}, due[0].FieldsOfStudy)

	require.NoError(t, store.MarkSent(ctx, verified.ID, 2024))

	due, err = store.Due(ctx, "06-15", 2024)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = store.Due(ctx, "06-15", 2025)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	// last_sent_year läuft nicht rückwärts.
	require.NoError(t, store.MarkSent(ctx, verified.ID, 2020))
	sub, err := store.ByVerificationToken(ctx, "verify-1")
	require.NoError(t, err)
	require.NotNil(t, sub.LastSentYear)
	assert.Equal(t, 2024, *sub.LastSentYear)
}
