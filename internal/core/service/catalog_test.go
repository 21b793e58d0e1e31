package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogFixture() []domain.Property {
	return []domain.Property{
		{ID: "1", Title: "Casa na Praia", Location: "Ubatuba", Type: domain.PropertyTypeSale},
		{ID: "2", Title: "Apartamento Centro", Location: "São Paulo", Type: domain.PropertyTypeRent},
		{ID: "3", Title: "Cobertura", Location: "Santos", Type: domain.PropertyTypeSale},
	}
}

func TestCatalogLoading(t *testing.T) {
	c := NewCatalog(newStubSubscriber())

	assert.True(t, c.Loading())
	assert.Equal(t, domain.CatalogStatus{Loading: true}, c.Status())

	c.onChange(catalogFixture())

	assert.False(t, c.Loading())
	assert.Equal(t, domain.CatalogStatus{Count: 3}, c.Status())
}

func TestCatalogRun(t *testing.T) {
	sub := newStubSubscriber()
	c := NewCatalog(sub)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case <-sub.ready:
	case <-time.After(time.Second):
		t.Fatal("subscription has not started")
	}

	sub.onChange(catalogFixture())
	assert.False(t, c.Loading())

	sub.onError(errors.New("broker is gone"))
	assert.Equal(t, "broker is gone", c.Status().LastError)

	sub.onChange(catalogFixture()[:1])
	assert.Empty(t, c.Status().LastError)
	assert.Equal(t, 1, c.Status().Count)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run has not returned")
	}
}

func TestCatalogListProperties(t *testing.T) {
	c := NewCatalog(newStubSubscriber())

	t.Run("WhileLoading", func(t *testing.T) {
		v, err := c.ListProperties(t.Context(), nil, "")
		require.NoError(t, err)
		assert.True(t, v.Loading)
		assert.Empty(t, v.Properties)
	})

	c.onChange(catalogFixture())

	t.Run("All", func(t *testing.T) {
		v, err := c.ListProperties(t.Context(), nil, "")
		require.NoError(t, err)
		assert.False(t, v.Loading)
		assert.Len(t, v.Properties, 3)
	})

	t.Run("FilterAndSearch", func(t *testing.T) {
		v, err := c.ListProperties(t.Context(), "sale", "SANTOS")
		require.NoError(t, err)
		require.Len(t, v.Properties, 1)
		assert.Equal(t, "3", v.Properties[0].ID)
	})

	t.Run("AccentInsensitive", func(t *testing.T) {
		v, err := c.ListProperties(t.Context(), "rent", "sao")
		require.NoError(t, err)
		require.Len(t, v.Properties, 1)
		assert.Equal(t, "2", v.Properties[0].ID)
	})

	t.Run("UnknownFilter", func(t *testing.T) {
		v, err := c.ListProperties(t.Context(), "villa", "")
		require.NoError(t, err)
		assert.Len(t, v.Properties, 3)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := c.ListProperties(ctx, nil, "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCatalogProperty(t *testing.T) {
	c := NewCatalog(newStubSubscriber())
	c.onChange(catalogFixture())

	p, err := c.Property(t.Context(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Apartamento Centro", p.Title)

	_, err = c.Property(t.Context(), "404")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestCatalogWatch(t *testing.T) {
	t.Run("NothingWhileLoading", func(t *testing.T) {
		c := NewCatalog(newStubSubscriber())
		ch := c.Watch(t.Context())

		select {
		case <-ch:
			t.Fatal("snapshot before the first load")
		default:
		}
	})

	t.Run("NothingAfterErrorBeforeFirstSnapshot", func(t *testing.T) {
		c := NewCatalog(newStubSubscriber())
		c.onError(errors.New("broker is gone"))
		require.False(t, c.Loading())

		ch := c.Watch(t.Context())
		select {
		case docs := <-ch:
			t.Fatalf("unexpected snapshot %v", docs)
		default:
		}

		c.onChange(catalogFixture())
		assert.Len(t, <-ch, 3)
	})

	t.Run("CurrentAfterLaterError", func(t *testing.T) {
		c := NewCatalog(newStubSubscriber())
		c.onChange(catalogFixture())
		c.onError(errors.New("broker is gone"))

		got := <-c.Watch(t.Context())
		assert.Len(t, got, 3)
	})

	t.Run("CurrentThenLatest", func(t *testing.T) {
		c := NewCatalog(newStubSubscriber())
		docs := catalogFixture()
		c.onChange(docs)

		ctx, cancel := context.WithCancel(t.Context())
		ch := c.Watch(ctx)

		got := <-ch
		assert.Len(t, got, 3)

		c.onChange(docs[:2])
		c.onChange(docs[:1])

		got = <-ch
		assert.Len(t, got, 1)

		cancel()
		require.Eventually(t, func() bool {
			_, ok := <-ch
			return !ok
		}, time.Second, 10*time.Millisecond)
	})
}
