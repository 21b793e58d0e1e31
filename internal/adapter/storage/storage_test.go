package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/prime-house/internal/adapter/storage"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLeads(t *testing.T) {
	m := storage.NewMemoryLeads()

	l1 := domain.Lead{ID: "1", Name: "Ana"}
	l2 := domain.Lead{ID: "2", Name: "Bruno", City: domain.OptionalString("Santos")}
	require.NoError(t, m.StoreLead(t.Context(), l1))
	require.NoError(t, m.StoreLead(t.Context(), l2))

	leads, err := m.ReadLeads(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.Lead{l1, l2}, leads)

	leads[0].Name = "changed"
	again, err := m.ReadLeads(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Ana", again[0].Name)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, m.StoreLead(ctx, l1), context.Canceled)
}

// Runs against a migrated database only.
func TestLeadsRepository(t *testing.T) {
	dsn := os.Getenv("PRIMEHOUSE_TEST_SQL_DB")
	if dsn == "" {
		t.Skip("PRIMEHOUSE_TEST_SQL_DB is not set")
	}

	db, err := storage.NewSQLDB(t.Context(), dsn)
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewLeadsRepository(db)

	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	want := domain.Lead{
		ID:        uuid.NewString(),
		Name:      "Ana",
		Email:     "ana@mail.com",
		Phone:     "1199999",
		Category:  domain.OptionalString("compra"),
		CreatedAt: createdAt.Add(time.Hour),
	}
	require.NoError(t, repo.StoreLead(t.Context(), want))

	leads, err := repo.ReadLeads(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, leads)

	got := leads[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Email, got.Email)
	assert.Nil(t, got.City)
	require.NotNil(t, got.Category)
	assert.Equal(t, "compra", *got.Category)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}
