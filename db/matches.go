package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"redeploy/internal/apperr"
	"redeploy/models"

	"github.com/jmoiron/sqlx"
)

const matchSelect = `
        SELECT m.id, m.agent_id, m.position_id, m.match_date, m.score, m.reasoning,
               a.full_name AS agent_name, o.name AS requesting_org_name, r.requesting_area
        FROM matches m
        JOIN agents a ON a.id = m.agent_id
        JOIN position_requests r ON r.id = m.position_id
        JOIN organizations o ON o.id = r.requesting_org_id`

func (s *Storage) ListMatches(ctx context.Context, limit, offset int) ([]models.MatchDetail, error) {
	query := matchSelect + ` ORDER BY m.match_date DESC, m.id DESC` + limitClause(limit, offset)
	matches := []models.MatchDetail{}
	if err := s.db.SelectContext(ctx, &matches, query); err != nil {
		return nil, mapDriverError(err, "match")
	}
	return matches, nil
}

func (s *Storage) GetMatch(ctx context.Context, id int) (*models.MatchDetail, error) {
	m := &models.MatchDetail{}
	if err := s.db.GetContext(ctx, m, s.db.Rebind(matchSelect+` WHERE m.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("match %d not found", id))
		}
		return nil, mapDriverError(err, "match")
	}
	return m, nil
}

// ConfirmMatch атомарно создаёт назначение и переводит агента в Assigned, а заявку в Filled.
// Если агент не Available или заявка не Open, возвращается StateConflict, ничего не меняется.
func (s *Storage) ConfirmMatch(ctx context.Context, m *models.Match) error {
	if m.MatchDate.IsZero() {
		m.MatchDate = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		// порядок блокировок всегда агент -> заявка
		if err := transitionAgent(ctx, tx, m.AgentID, models.TransitionConfirm); err != nil {
			return err
		}
		if err := transitionPosition(ctx, tx, m.PositionID, models.TransitionConfirm); err != nil {
			return err
		}
		query := `
        INSERT INTO matches (agent_id, position_id, match_date, score, reasoning)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id`
		err := tx.QueryRowxContext(ctx, tx.Rebind(query),
			m.AgentID, m.PositionID, m.MatchDate, m.Score, m.Reasoning).Scan(&m.ID)
		if err != nil {
			mapped := mapDriverError(err, "match")
			if apperr.Is(mapped, apperr.KindConflict) {
				return apperr.StateConflict(fmt.Sprintf("agent %s or position request %s already has a match", m.AgentID, m.PositionID))
			}
			return mapped
		}
		return nil
	})
}

// RevertMatch удаляет назначение и возвращает агента в Available, заявку в Open.
// Повторная отмена того же id даёт NotFound.
func (s *Storage) RevertMatch(ctx context.Context, id int) (*models.Match, error) {
	m := &models.Match{}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT id, agent_id, position_id, match_date, score, reasoning FROM matches WHERE id = ?`
		err := tx.GetContext(ctx, m, tx.Rebind(query), id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound(fmt.Sprintf("match %d not found", id))
		}
		if err != nil {
			return mapDriverError(err, "match")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM matches WHERE id = ?`), id)
		if err != nil {
			return mapDriverError(err, "match")
		}
		// параллельная отмена успела удалить запись первой
		if rowsAffected(res) == 0 {
			return apperr.NotFound(fmt.Sprintf("match %d not found", id))
		}
		if err := transitionAgent(ctx, tx, m.AgentID, models.TransitionRevert); err != nil {
			return err
		}
		return transitionPosition(ctx, tx, m.PositionID, models.TransitionRevert)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
