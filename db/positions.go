package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"redeploy/internal/apperr"
	"redeploy/models"

	"github.com/jmoiron/sqlx"
)

const positionSelect = `
        SELECT r.id, r.requesting_org_id, o.name AS requesting_org_name, r.requesting_area,
               r.profile_required_id, p.name AS profile_required_name, r.main_functions,
               r.hours_required, r.request_date, r.status
        FROM position_requests r
        JOIN organizations o ON o.id = r.requesting_org_id
        JOIN functional_profiles p ON p.id = r.profile_required_id`

type PositionFilter struct {
	Status models.PositionStatus
	Limit  int
	Offset int
}

func (s *Storage) ListPositions(ctx context.Context, f PositionFilter) ([]models.PositionRequest, error) {
	query := positionSelect
	var args []interface{}
	if f.Status != "" {
		query += ` WHERE r.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY r.request_date DESC, r.id ASC`
	query += limitClause(f.Limit, f.Offset)

	positions := []models.PositionRequest{}
	if err := s.db.SelectContext(ctx, &positions, s.db.Rebind(query), args...); err != nil {
		return nil, mapDriverError(err, "position request")
	}
	return positions, nil
}

// GetPosition возвращает заявку вместе с названиями организации и профиля.
func (s *Storage) GetPosition(ctx context.Context, id string) (*models.PositionRequest, error) {
	return getPosition(ctx, s.db, id)
}

func getPosition(ctx context.Context, q queryer, id string) (*models.PositionRequest, error) {
	p := &models.PositionRequest{}
	if err := q.GetContext(ctx, p, q.Rebind(positionSelect+` WHERE r.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("position request %s not found", id))
		}
		return nil, mapDriverError(err, "position request")
	}
	return p, nil
}

// CreatePosition создаёт заявку. Начальный статус Open либо Void.
func (s *Storage) CreatePosition(ctx context.Context, p *models.PositionRequest) error {
	status := p.Status
	if status == "" {
		status = models.PositionOpen
	}
	if status != models.PositionOpen && status != models.PositionVoid {
		return apperr.Validation("status", "a new position request must be Open or Void")
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkPositionRefs(ctx, tx, p); err != nil {
			return err
		}
		query := `
        INSERT INTO position_requests
            (id, requesting_org_id, requesting_area, profile_required_id,
             main_functions, hours_required, request_date, status)
        VALUES
            (?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, tx.Rebind(query),
			p.ID, p.RequestingOrgID, p.RequestingArea, p.ProfileRequiredID,
			p.MainFunctions, p.HoursRequired, p.RequestDate, status)
		if err != nil {
			mapped := mapDriverError(err, "position request")
			if apperr.Is(mapped, apperr.KindConflict) {
				return apperr.Conflict("id", fmt.Sprintf("position request %s already exists", p.ID))
			}
			return mapped
		}
		stored, err := getPosition(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		*p = *stored
		return nil
	})
}

// UpdatePosition меняет поля заявки, кроме статуса.
func (s *Storage) UpdatePosition(ctx context.Context, p *models.PositionRequest) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkPositionRefs(ctx, tx, p); err != nil {
			return err
		}
		query := `
        UPDATE position_requests
        SET requesting_org_id = ?, requesting_area = ?, profile_required_id = ?,
            main_functions = ?, hours_required = ?, request_date = ?
        WHERE id = ?`
		res, err := tx.ExecContext(ctx, tx.Rebind(query),
			p.RequestingOrgID, p.RequestingArea, p.ProfileRequiredID,
			p.MainFunctions, p.HoursRequired, p.RequestDate, p.ID)
		if err != nil {
			return mapDriverError(err, "position request")
		}
		if rowsAffected(res) == 0 {
			return apperr.NotFound(fmt.Sprintf("position request %s not found", p.ID))
		}
		stored, err := getPosition(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		*p = *stored
		return nil
	})
}

func (s *Storage) PositionExists(ctx context.Context, id string) (bool, error) {
	n, err := countRows(ctx, s.db, `SELECT COUNT(1) FROM position_requests WHERE id = ?`, id)
	if err != nil {
		return false, mapDriverError(err, "position request")
	}
	return n > 0, nil
}

func checkPositionRefs(ctx context.Context, tx *sqlx.Tx, p *models.PositionRequest) error {
	ok, err := organizationsTable.exists(ctx, tx, p.RequestingOrgID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("requestingOrgId", fmt.Sprintf("organization %d does not exist", p.RequestingOrgID))
	}
	ok, err = profilesTable.exists(ctx, tx, p.ProfileRequiredID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("profileRequiredId", fmt.Sprintf("functional profile %d does not exist", p.ProfileRequiredID))
	}
	return nil
}

func transitionPosition(ctx context.Context, tx *sqlx.Tx, id string, t models.Transition) error {
	from, to := models.PositionTransition(t)
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE position_requests SET status = ? WHERE id = ? AND status = ?`), to, id, from)
	if err != nil {
		return mapDriverError(err, "position request")
	}
	if rowsAffected(res) == 1 {
		return nil
	}

	var current models.PositionStatus
	err = tx.GetContext(ctx, &current, tx.Rebind(`SELECT status FROM position_requests WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(fmt.Sprintf("position request %s not found", id))
	}
	if err != nil {
		return mapDriverError(err, "position request")
	}
	return apperr.StateConflict(fmt.Sprintf("position request %s is %s, expected %s", id, current, from))
}
