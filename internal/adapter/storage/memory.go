package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

var _ port.LeadsStorage = (*MemoryLeads)(nil)

// MemoryLeads keeps leads in process memory. It is used when no database
// is configured, everything is lost on restart.
type MemoryLeads struct {
	mu    sync.Mutex
	leads []domain.Lead
}

func NewMemoryLeads() *MemoryLeads {
	return &MemoryLeads{}
}

func (m *MemoryLeads) StoreLead(ctx context.Context, v domain.Lead) error {
	const op = "MemoryLeads.StoreLead"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = append(m.leads, v)
	return nil
}

func (m *MemoryLeads) ReadLeads(ctx context.Context) ([]domain.Lead, error) {
	const op = "MemoryLeads.ReadLeads"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.leads), nil
}
