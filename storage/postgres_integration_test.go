//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/models"
	"paper-birthdays/storage"
	"paper-birthdays/storage/storagetest"
)

func TestPostgresPartialIndexAndArrays(t *testing.T) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("paper_birthdays"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := storage.Open(&config.Config{
		DBDriver:          "postgres",
		DatabaseURL:       dsn,
		DBMaxOpenConns:    4,
		DBMaxIdleConns:    2,
		DBConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })

	p := storagetest.Paper("p1", "Postgres Paper", 1998, 42, "06-15")
	p.FieldsOfStudy = models.FieldTags{"Medicine", "Biology"}
	storagetest.SeedPapers(t, db, p)

	papers, err := storage.NewPaperStore(db).PapersByMonthDay(ctx, "06-15")
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, models.FieldTags{"Medicine", "Biology"}, papers[0].FieldsOfStudy)

	subs := storage.NewSubscriptionStore(db)
	require.NoError(t, subs.Create(ctx, newSub("alice@example.com", "p1", "1")))
	assert.ErrorIs(t, subs.Create(ctx, newSub("alice@example.com", "p1", "2")), models.ErrDuplicate)

	ok, err := subs.MarkUnsubscribed(ctx, "unsub-1", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, subs.Create(ctx, newSub("alice@example.com", "p1", "3")))
}
