package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

var _ port.LeadsCreator = (*Leads)(nil)
var _ port.LeadsLister = (*Leads)(nil)

type Leads struct {
	storage port.LeadsStorage
	newID   func() string
	now     func() time.Time
}

func NewLeads(storage port.LeadsStorage) Leads {
	return Leads{
		storage: storage,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (s Leads) CreateLead(
	ctx context.Context, d domain.LeadDraft,
) (domain.Lead, error) {
	const op = "Leads.CreateLead"

	if err := ctx.Err(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := d.Validate(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	lead := domain.Lead{
		ID:        s.newID(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		City:      domain.OptionalString(d.City),
		State:     domain.OptionalString(d.State),
		Category:  domain.OptionalString(d.Category),
		CreatedAt: s.now().UTC(),
	}

	if err := s.storage.StoreLead(ctx, lead); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("lead stored", "op", op, "id", lead.ID)
	return lead, nil
}

// ListLeads returns every lead, newest first.
func (s Leads) ListLeads(
	ctx context.Context, who domain.Identity,
) ([]domain.Lead, error) {
	const op = "Leads.ListLeads"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !who.Admin {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrAccessDenied)
	}

	leads, err := s.storage.ReadLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slices.SortStableFunc(leads, func(a, b domain.Lead) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return leads, nil
}
