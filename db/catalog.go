package db

import (
	"context"
	"fmt"
	"strings"

	"redeploy/internal/apperr"
	"redeploy/models"

	"github.com/jmoiron/sqlx"
)

// Организации и функциональные профили устроены одинаково: id + уникальное имя,
// удаление запрещено, пока на запись ссылаются агенты или заявки.
type catalogTable struct {
	table    string
	entity   string
	agentCol string
	positCol string
}

var (
	organizationsTable = catalogTable{table: "organizations", entity: "organization", agentCol: "origin_org_id", positCol: "requesting_org_id"}
	profilesTable      = catalogTable{table: "functional_profiles", entity: "functional profile", agentCol: "profile_id", positCol: "profile_required_id"}
)

type catalogRow struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

func (c catalogTable) list(ctx context.Context, q queryer) ([]catalogRow, error) {
	rows := []catalogRow{}
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name ASC`, c.table)
	if err := q.SelectContext(ctx, &rows, query); err != nil {
		return nil, mapDriverError(err, c.entity)
	}
	return rows, nil
}

func (c catalogTable) get(ctx context.Context, q queryer, id int) (catalogRow, error) {
	var row catalogRow
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = ?`, c.table)
	if err := q.GetContext(ctx, &row, q.Rebind(query), id); err != nil {
		return catalogRow{}, mapDriverError(err, fmt.Sprintf("%s %d", c.entity, id))
	}
	return row, nil
}

func (c catalogTable) exists(ctx context.Context, q queryer, id int) (bool, error) {
	n, err := countRows(ctx, q, fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE id = ?`, c.table), id)
	if err != nil {
		return false, mapDriverError(err, c.entity)
	}
	return n > 0, nil
}

func (c catalogTable) create(ctx context.Context, q queryer, name string) (catalogRow, error) {
	row := catalogRow{Name: strings.TrimSpace(name)}
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES (?) RETURNING id`, c.table)
	if err := q.QueryRowxContext(ctx, q.Rebind(query), row.Name).Scan(&row.ID); err != nil {
		return catalogRow{}, c.nameError(err)
	}
	return row, nil
}

func (c catalogTable) update(ctx context.Context, q queryer, id int, name string) (catalogRow, error) {
	row := catalogRow{ID: id, Name: strings.TrimSpace(name)}
	query := fmt.Sprintf(`UPDATE %s SET name = ? WHERE id = ?`, c.table)
	res, err := q.ExecContext(ctx, q.Rebind(query), row.Name, id)
	if err != nil {
		return catalogRow{}, c.nameError(err)
	}
	if rowsAffected(res) == 0 {
		return catalogRow{}, apperr.NotFound(fmt.Sprintf("%s %d not found", c.entity, id))
	}
	return row, nil
}

func (c catalogTable) delete(ctx context.Context, tx *sqlx.Tx, id int) error {
	agents, err := countRows(ctx, tx, fmt.Sprintf(`SELECT COUNT(1) FROM agents WHERE %s = ?`, c.agentCol), id)
	if err != nil {
		return mapDriverError(err, c.entity)
	}
	positions, err := countRows(ctx, tx, fmt.Sprintf(`SELECT COUNT(1) FROM position_requests WHERE %s = ?`, c.positCol), id)
	if err != nil {
		return mapDriverError(err, c.entity)
	}
	if agents > 0 || positions > 0 {
		return apperr.ReferentialConflict(fmt.Sprintf("%s %d is referenced by %d agents and %d position requests", c.entity, id, agents, positions))
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c.table)), id)
	if err != nil {
		return mapDriverError(err, c.entity)
	}
	if rowsAffected(res) == 0 {
		return apperr.NotFound(fmt.Sprintf("%s %d not found", c.entity, id))
	}
	return nil
}

func (c catalogTable) nameError(err error) error {
	mapped := mapDriverError(err, c.entity)
	if apperr.Is(mapped, apperr.KindConflict) {
		return apperr.Conflict("name", fmt.Sprintf("%s with this name already exists", c.entity))
	}
	return mapped
}

// Организации

func (s *Storage) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := organizationsTable.list(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]models.Organization, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Organization{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *Storage) GetOrganization(ctx context.Context, id int) (*models.Organization, error) {
	r, err := organizationsTable.get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &models.Organization{ID: r.ID, Name: r.Name}, nil
}

func (s *Storage) CreateOrganization(ctx context.Context, o *models.Organization) error {
	r, err := organizationsTable.create(ctx, s.db, o.Name)
	if err != nil {
		return err
	}
	o.ID, o.Name = r.ID, r.Name
	return nil
}

func (s *Storage) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	r, err := organizationsTable.update(ctx, s.db, o.ID, o.Name)
	if err != nil {
		return err
	}
	o.Name = r.Name
	return nil
}

func (s *Storage) DeleteOrganization(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return organizationsTable.delete(ctx, tx, id)
	})
}

// Функциональные профили

func (s *Storage) ListProfiles(ctx context.Context) ([]models.FunctionalProfile, error) {
	rows, err := profilesTable.list(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]models.FunctionalProfile, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.FunctionalProfile{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *Storage) GetProfile(ctx context.Context, id int) (*models.FunctionalProfile, error) {
	r, err := profilesTable.get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &models.FunctionalProfile{ID: r.ID, Name: r.Name}, nil
}

func (s *Storage) CreateProfile(ctx context.Context, p *models.FunctionalProfile) error {
	r, err := profilesTable.create(ctx, s.db, p.Name)
	if err != nil {
		return err
	}
	p.ID, p.Name = r.ID, r.Name
	return nil
}

func (s *Storage) UpdateProfile(ctx context.Context, p *models.FunctionalProfile) error {
	r, err := profilesTable.update(ctx, s.db, p.ID, p.Name)
	if err != nil {
		return err
	}
	p.Name = r.Name
	return nil
}

func (s *Storage) DeleteProfile(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return profilesTable.delete(ctx, tx, id)
	})
}
