package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/niksmo/prime-house/internal/core/store"
)

var _ port.PropertiesReader = (*Catalog)(nil)
var _ port.PropertiesWatcher = (*Catalog)(nil)

// A Catalog owns the server-side properties store and keeps it in sync
// with the realtime subscription.
type Catalog struct {
	subscriber port.PropertiesSubscriber

	mu       sync.RWMutex
	store    *store.Store
	loading  bool
	loaded   bool
	lastErr  error
	watchers map[chan []domain.Property]struct{}
}

func NewCatalog(subscriber port.PropertiesSubscriber) *Catalog {
	return &Catalog{
		subscriber: subscriber,
		store:      store.New(),
		loading:    true,
		watchers:   make(map[chan []domain.Property]struct{}),
	}
}

// Run subscribes to the collection. Blocks until ctx is done.
func (c *Catalog) Run(ctx context.Context) {
	const op = "Catalog.Run"
	log := slog.With("op", op)

	c.setLoading(true)
	log.Info("subscribing to properties")
	c.subscriber.Subscribe(ctx, c.onChange, c.onError)
	log.Info("subscription is over")
}

func (c *Catalog) onChange(docs []domain.Property) {
	const op = "Catalog.onChange"

	c.mu.Lock()
	c.store.SetProperties(docs)
	c.loading = false
	c.loaded = true
	c.lastErr = nil
	c.broadcast(docs)
	c.mu.Unlock()

	slog.Debug("snapshot applied", "op", op, "nProperties", len(docs))
}

func (c *Catalog) onError(err error) {
	const op = "Catalog.onError"

	c.mu.Lock()
	c.loading = false
	c.lastErr = err
	c.mu.Unlock()

	slog.Error("failed to fetch properties", "op", op, "err", err)
}

func (c *Catalog) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Catalog) Status() domain.CatalogStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := domain.CatalogStatus{
		Loading: c.loading,
		Count:   len(c.store.Properties()),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// ListProperties reads the filtered view and the loading state under
// the same lock, so both describe one snapshot.
func (c *Catalog) ListProperties(
	ctx context.Context, filter any, search string,
) (domain.CatalogView, error) {
	const op = "Catalog.ListProperties"

	if err := ctx.Err(); err != nil {
		return domain.CatalogView{}, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CatalogView{
		Loading: c.loading,
		Properties: store.Query(
			c.store.Properties(), domain.ParseFilter(filter), search,
		),
	}, nil
}

func (c *Catalog) Property(
	ctx context.Context, id string,
) (domain.Property, error) {
	const op = "Catalog.Property"

	if err := ctx.Err(); err != nil {
		return domain.Property{}, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ps := c.store.Properties()
	i := slices.IndexFunc(ps, func(p domain.Property) bool {
		return p.ID == id
	})
	if i < 0 {
		return domain.Property{}, fmt.Errorf(
			"%s: %w", op, domain.ErrPropertyNotFound,
		)
	}
	return ps[i], nil
}

// Watch streams every applied snapshot, starting with the current one when
// a snapshot has been applied already. A subscription failure before the
// first snapshot sends nothing. A slow reader only gets the newest snapshot.
func (c *Catalog) Watch(ctx context.Context) <-chan []domain.Property {
	ch := make(chan []domain.Property, 1)

	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	if c.loaded {
		ch <- c.store.Properties()
	}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.watchers, ch)
		close(ch)
		c.mu.Unlock()
	}()

	return ch
}

// broadcast must be called with mu held.
func (c *Catalog) broadcast(docs []domain.Property) {
	for ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- docs
	}
}
