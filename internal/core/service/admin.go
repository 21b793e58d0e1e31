package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

var _ port.PropertiesEditor = (*Admin)(nil)

const DefaultMaxDocumentBytes = 1 << 20

// IsAdmin is the single admin check: the base64 encoded email
// has to match the configured hash.
func IsAdmin(email, adminHash string) bool {
	if email == "" || adminHash == "" {
		return false
	}
	return base64.StdEncoding.EncodeToString([]byte(email)) == adminHash
}

// An Admin handles the listings CRUD. Every operation requires an admin identity.
type Admin struct {
	catalog     port.PropertiesReader
	emitter     port.PropertyCommandEmitter
	sizer       port.DocumentSizer
	maxDocBytes int
	newID       func() string
	now         func() time.Time
}

func NewAdmin(
	catalog port.PropertiesReader,
	emitter port.PropertyCommandEmitter,
	sizer port.DocumentSizer,
	maxDocBytes int,
) Admin {
	if maxDocBytes <= 0 {
		maxDocBytes = DefaultMaxDocumentBytes
	}
	return Admin{
		catalog:     catalog,
		emitter:     emitter,
		sizer:       sizer,
		maxDocBytes: maxDocBytes,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

func (a Admin) SaveProperty(
	ctx context.Context, who domain.Identity, d domain.PropertyDraft,
) (string, error) {
	const op = "Admin.SaveProperty"
	log := slog.With("op", op, "by", who.Email)

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !who.Admin {
		return "", fmt.Errorf("%s: %w", op, domain.ErrAccessDenied)
	}

	if err := a.validate(d); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id := d.ID
	var gallery []string
	if id != "" {
		current, err := a.catalog.Property(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		gallery = slices.Clone(current.Gallery)
	} else {
		id = a.newID()
	}
	gallery = append(gallery, d.NewGallery...)

	iptu, condo := d.IPTU, d.Condo
	p := domain.Property{
		ID:          id,
		Title:       d.Title,
		Location:    d.Location,
		Description: d.Description,
		Price:       d.Price,
		Type:        d.Type,
		Beds:        d.Beds,
		Baths:       d.Baths,
		Area:        d.Area,
		Garages:     d.Garages,
		IPTU:        &iptu,
		Condo:       &condo,
		Image:       d.Image,
		Gallery:     gallery,
		Featured:    d.Featured,
		UpdatedAt:   a.now().UTC(),
		UpdatedBy:   who.Email,
	}

	size, err := a.sizer.DocumentSize(p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if size > a.maxDocBytes {
		return "", fmt.Errorf(
			"%s: %w: %d > %d bytes", op, domain.ErrDocumentTooLarge,
			size, a.maxDocBytes,
		)
	}

	err = a.emitter.EmitCommand(ctx, domain.PropertyCommand{
		Kind:       domain.CommandUpsert,
		PropertyID: id,
		Property:   &p,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("property saved", "id", id, "nGallery", len(gallery))
	return id, nil
}

func (a Admin) DeleteProperty(
	ctx context.Context, who domain.Identity, id string,
) error {
	const op = "Admin.DeleteProperty"
	return a.emit(ctx, op, who, domain.PropertyCommand{
		Kind:       domain.CommandDelete,
		PropertyID: id,
	})
}

func (a Admin) ClearGallery(
	ctx context.Context, who domain.Identity, id string,
) error {
	const op = "Admin.ClearGallery"
	return a.emit(ctx, op, who, domain.PropertyCommand{
		Kind:       domain.CommandClearGallery,
		PropertyID: id,
	})
}

func (a Admin) emit(
	ctx context.Context, op string, who domain.Identity, cmd domain.PropertyCommand,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !who.Admin {
		return fmt.Errorf("%s: %w", op, domain.ErrAccessDenied)
	}

	if cmd.PropertyID == "" {
		return fmt.Errorf("%s: %w", op, domain.ErrPropertyNotFound)
	}

	if err := a.emitter.EmitCommand(ctx, cmd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slog.Info(
		"command emitted",
		"op", op, "kind", cmd.Kind, "id", cmd.PropertyID, "by", who.Email,
	)
	return nil
}

func (Admin) validate(d domain.PropertyDraft) error {
	if d.Image == "" {
		return domain.ErrImageRequired
	}

	var errs []error
	if !d.Type.Valid() {
		errs = append(errs, fmt.Errorf("type %q: must be sale or rent", d.Type))
	}

	numbers := []struct {
		name string
		v    float64
	}{
		{"price", d.Price},
		{"beds", d.Beds},
		{"baths", d.Baths},
		{"area", d.Area},
		{"garages", float64(d.Garages)},
		{"iptu", d.IPTU},
		{"condo", d.Condo},
	}
	for _, n := range numbers {
		if n.v < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", n.name))
		}
	}

	if len(errs) != 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidProperty, errors.Join(errs...))
	}
	return nil
}
