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

const agentSelect = `
        SELECT a.id, a.full_name, a.origin_org_id, o.name AS origin_org_name,
               a.profile_id, p.name AS profile_name, a.key_competencies,
               a.working_hours, a.available_for_rotation, a.interview_date, a.status
        FROM agents a
        JOIN organizations o ON o.id = a.origin_org_id
        JOIN functional_profiles p ON p.id = a.profile_id`

// AgentFilter: фильтры списка агентов. Limit <= 0 означает «без ограничения».
type AgentFilter struct {
	Status models.AgentStatus
	Limit  int
	Offset int
}

func (s *Storage) ListAgents(ctx context.Context, f AgentFilter) ([]models.Agent, error) {
	query := agentSelect
	var args []interface{}
	if f.Status != "" {
		query += ` WHERE a.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY a.full_name ASC, a.id ASC`
	query += limitClause(f.Limit, f.Offset)

	agents := []models.Agent{}
	if err := s.db.SelectContext(ctx, &agents, s.db.Rebind(query), args...); err != nil {
		return nil, mapDriverError(err, "agent")
	}
	return agents, nil
}

func (s *Storage) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	return getAgent(ctx, s.db, id)
}

func getAgent(ctx context.Context, q queryer, id string) (*models.Agent, error) {
	a := &models.Agent{}
	if err := q.GetContext(ctx, a, q.Rebind(agentSelect+` WHERE a.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("agent %s not found", id))
		}
		return nil, mapDriverError(err, "agent")
	}
	return a, nil
}

// CreateAgent создаёт агента. Существующий id означает конфликт, а не перезапись.
func (s *Storage) CreateAgent(ctx context.Context, a *models.Agent) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkAgentRefs(ctx, tx, a); err != nil {
			return err
		}
		query := `
        INSERT INTO agents
            (id, full_name, origin_org_id, profile_id, key_competencies,
             working_hours, available_for_rotation, interview_date, status)
        VALUES
            (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, tx.Rebind(query),
			a.ID, a.FullName, a.OriginOrgID, a.ProfileID, a.KeyCompetencies,
			a.WorkingHours, a.AvailableForRotation, a.InterviewDate, models.AgentAvailable)
		if err != nil {
			mapped := mapDriverError(err, "agent")
			if apperr.Is(mapped, apperr.KindConflict) {
				return apperr.Conflict("id", fmt.Sprintf("agent %s already exists", a.ID))
			}
			return mapped
		}
		stored, err := getAgent(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		*a = *stored
		return nil
	})
}

// UpdateAgent меняет анкетные поля. Статус здесь не трогается, он меняется только через назначения.
func (s *Storage) UpdateAgent(ctx context.Context, a *models.Agent) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkAgentRefs(ctx, tx, a); err != nil {
			return err
		}
		query := `
        UPDATE agents
        SET full_name = ?, origin_org_id = ?, profile_id = ?, key_competencies = ?,
            working_hours = ?, available_for_rotation = ?, interview_date = ?
        WHERE id = ?`
		res, err := tx.ExecContext(ctx, tx.Rebind(query),
			a.FullName, a.OriginOrgID, a.ProfileID, a.KeyCompetencies,
			a.WorkingHours, a.AvailableForRotation, a.InterviewDate, a.ID)
		if err != nil {
			return mapDriverError(err, "agent")
		}
		if rowsAffected(res) == 0 {
			return apperr.NotFound(fmt.Sprintf("agent %s not found", a.ID))
		}
		stored, err := getAgent(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		*a = *stored
		return nil
	})
}

func (s *Storage) AgentExists(ctx context.Context, id string) (bool, error) {
	n, err := countRows(ctx, s.db, `SELECT COUNT(1) FROM agents WHERE id = ?`, id)
	if err != nil {
		return false, mapDriverError(err, "agent")
	}
	return n > 0, nil
}

func checkAgentRefs(ctx context.Context, tx *sqlx.Tx, a *models.Agent) error {
	ok, err := organizationsTable.exists(ctx, tx, a.OriginOrgID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("originOrgId", fmt.Sprintf("organization %d does not exist", a.OriginOrgID))
	}
	ok, err = profilesTable.exists(ctx, tx, a.ProfileID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("profileId", fmt.Sprintf("functional profile %d does not exist", a.ProfileID))
	}
	return nil
}

// transitionAgent переводит агента по ребру машины состояний. Обновление
// выполняется только из ожидаемого статуса: 0 строк значит, что кто-то успел раньше.
func transitionAgent(ctx context.Context, tx *sqlx.Tx, id string, t models.Transition) error {
	from, to := models.AgentTransition(t)
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE agents SET status = ? WHERE id = ? AND status = ?`), to, id, from)
	if err != nil {
		return mapDriverError(err, "agent")
	}
	if rowsAffected(res) == 1 {
		return nil
	}

	var current models.AgentStatus
	err = tx.GetContext(ctx, &current, tx.Rebind(`SELECT status FROM agents WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(fmt.Sprintf("agent %s not found", id))
	}
	if err != nil {
		return mapDriverError(err, "agent")
	}
	return apperr.StateConflict(fmt.Sprintf("agent %s is %s, expected %s", id, current, from))
}

func limitClause(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
