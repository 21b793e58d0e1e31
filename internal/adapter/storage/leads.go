package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

var _ port.LeadsStorage = (*LeadsRepository)(nil)

type LeadsRepository struct {
	sqldb sqldb
}

func NewLeadsRepository(sqldb sqldb) LeadsRepository {
	return LeadsRepository{sqldb}
}

func (r LeadsRepository) StoreLead(ctx context.Context, v domain.Lead) error {
	const op = "LeadsRepository.StoreLead"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO leads (
			id, nome, email, telefone, cidade, estado, categoria, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	_, err := r.sqldb.ExecContext(ctx, query,
		v.ID, v.Name, v.Email, v.Phone,
		v.City, v.State, v.Category, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

func (r LeadsRepository) ReadLeads(
	ctx context.Context,
) (vs []domain.Lead, readErr error) {
	const op = "LeadsRepository.ReadLeads"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			id, nome, email, telefone, cidade, estado, categoria, created_at
		FROM leads
		ORDER BY created_at DESC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	for rows.Next() {
		var (
			v                     domain.Lead
			city, state, category sql.NullString
		)
		err := rows.Scan(
			&v.ID, &v.Name, &v.Email, &v.Phone,
			&city, &state, &category, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan: %w", op, err)
		}
		v.City = nullToPtr(city)
		v.State = nullToPtr(state)
		v.Category = nullToPtr(category)
		v.CreatedAt = v.CreatedAt.UTC()
		vs = append(vs, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func nullToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
