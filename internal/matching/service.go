package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"redeploy/db"
	"redeploy/internal/apperr"
	"redeploy/internal/events"
	"redeploy/models"

	"go.uber.org/zap"
)

const (
	// ManualScore: фиксированный балл ручного назначения (бизнес-правило).
	ManualScore     = 100
	ManualReasoning = "Manual assignment"

	DefaultOracleTimeout = 20 * time.Second
)

type Source string

const (
	SourceOracle Source = "oracle"
	SourceManual Source = "manual"
)

// Store: то, что сценариям назначения нужно от хранилища.
type Store interface {
	GetPosition(ctx context.Context, id string) (*models.PositionRequest, error)
	ListAgents(ctx context.Context, f db.AgentFilter) ([]models.Agent, error)
	ConfirmMatch(ctx context.Context, m *models.Match) error
	RevertMatch(ctx context.Context, id int) (*models.Match, error)
}

type Metrics interface {
	ObserveOracle(outcome string, elapsed time.Duration)
	MatchConfirmed(source string)
	MatchReverted()
}

type Service struct {
	store         Store
	oracle        Oracle
	events        events.Publisher
	metrics       Metrics
	log           *zap.Logger
	oracleTimeout time.Duration
	now           func() time.Time
}

type Option func(*Service)

func WithEvents(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithOracleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.oracleTimeout = d
		}
	}
}

// NewService собирает сервис. oracle может быть nil: тогда Suggest отвечает OracleUnavailable.
func NewService(store Store, oracle Oracle, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		oracle:        oracle,
		events:        events.Nop{},
		metrics:       nopMetrics{},
		log:           log,
		oracleTimeout: DefaultOracleTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result: ответ подбора. Degraded означает, что оракул не ответил или ответил мусором.
type Result struct {
	PositionID  string      `json:"positionId"`
	Suggestions []Candidate `json:"suggestions"`
	Degraded    bool        `json:"degraded"`
}

// Suggest просит оракула выбрать лучших кандидатов на заявку.
// Сбой вызова или неразборчивый ответ дают пустой список, а не ошибку.
func (s *Service) Suggest(ctx context.Context, positionID string) (*Result, error) {
	positionID = strings.TrimSpace(positionID)
	if positionID == "" {
		return nil, apperr.Validation("positionId", "positionId is required")
	}

	// сначала заявка: неизвестный id даёт NotFound и без оракула
	position, err := s.store.GetPosition(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if s.oracle == nil {
		return nil, apperr.OracleUnavailable("matching oracle is not configured", nil)
	}
	agents, err := s.store.ListAgents(ctx, db.AgentFilter{})
	if err != nil {
		return nil, err
	}

	result := &Result{PositionID: position.ID, Suggestions: []Candidate{}}
	log := s.log.With(zap.String("position_id", position.ID), zap.Int("roster_size", len(agents)))

	callCtx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	start := s.now()
	text, err := s.oracle.Complete(callCtx, BuildPrompt(position, agents))
	elapsed := s.now().Sub(start)
	if err != nil {
		if errors.Is(err, ErrOracleNotConfigured) {
			s.metrics.ObserveOracle("unconfigured", elapsed)
			return nil, apperr.OracleUnavailable("matching oracle is not configured", err)
		}
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		s.metrics.ObserveOracle(outcome, elapsed)
		log.Warn("oracle call failed", zap.String("outcome", outcome), zap.Duration("elapsed", elapsed), zap.Error(err))
		result.Degraded = true
		return result, nil
	}

	candidates, err := ParseCandidates(text)
	if err != nil {
		s.metrics.ObserveOracle("malformed", elapsed)
		log.Warn("oracle returned malformed output", zap.Error(err), zap.Int("response_len", len(text)))
		result.Degraded = true
		return result, nil
	}
	s.metrics.ObserveOracle("ok", elapsed)

	statuses := make(map[string]models.AgentStatus, len(agents))
	for _, a := range agents {
		statuses[a.ID] = a.Status
	}
	// агентов, которых нет в реестре, оракул выдумал; лимит считается после отсева
	seen := make(map[string]bool, MaxSuggestions)
	for _, c := range candidates {
		if len(result.Suggestions) == MaxSuggestions {
			break
		}
		status, ok := statuses[c.AgentID]
		if !ok {
			log.Warn("oracle suggested unknown agent", zap.String("agent_id", c.AgentID))
			continue
		}
		if seen[c.AgentID] {
			continue
		}
		seen[c.AgentID] = true
		c.AgentStatus = status
		result.Suggestions = append(result.Suggestions, c)
	}
	if len(candidates) > 0 && len(result.Suggestions) == 0 {
		log.Warn("oracle suggested only unknown agents", zap.Int("parsed", len(candidates)))
		result.Degraded = true
		return result, nil
	}
	log.Info("oracle suggestions ready", zap.Int("count", len(result.Suggestions)), zap.Duration("elapsed", elapsed))
	return result, nil
}

type ConfirmInput struct {
	AgentID    string
	PositionID string
	Score      *int
	Reasoning  string
	Source     Source
}

// Confirm создаёт назначение в одной транзакции с переводом агента в Assigned и заявки в Filled.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*models.Match, error) {
	in.AgentID = strings.TrimSpace(in.AgentID)
	in.PositionID = strings.TrimSpace(in.PositionID)
	if in.AgentID == "" {
		return nil, apperr.Validation("agentId", "agentId is required")
	}
	if in.PositionID == "" {
		return nil, apperr.Validation("positionId", "positionId is required")
	}

	// балл 100 по умолчанию есть только у ручного назначения
	if in.Source == SourceOracle && in.Score == nil {
		return nil, apperr.Validation("score", "score is required for oracle matches")
	}
	score := ManualScore
	if in.Score != nil {
		score = *in.Score
	}
	if score < 0 || score > 100 {
		return nil, apperr.Validation("score", fmt.Sprintf("score %d is outside 0..100", score))
	}
	reasoning := strings.TrimSpace(in.Reasoning)
	if reasoning == "" {
		reasoning = ManualReasoning
	}
	source := in.Source
	if source == "" {
		source = SourceManual
		if in.Score != nil {
			source = SourceOracle
		}
	}

	m := &models.Match{
		AgentID:    in.AgentID,
		PositionID: in.PositionID,
		MatchDate:  s.now().UTC(),
		Score:      score,
		Reasoning:  reasoning,
	}
	if err := s.store.ConfirmMatch(ctx, m); err != nil {
		s.log.Info("match confirmation rejected",
			zap.String("agent_id", in.AgentID), zap.String("position_id", in.PositionID), zap.Error(err))
		return nil, err
	}

	s.metrics.MatchConfirmed(string(source))
	s.log.Info("match confirmed",
		zap.Int("match_id", m.ID), zap.String("agent_id", m.AgentID),
		zap.String("position_id", m.PositionID), zap.Int("score", m.Score), zap.String("source", string(source)))
	s.publish(ctx, events.Event{
		Type:       events.MatchConfirmed,
		MatchID:    m.ID,
		AgentID:    m.AgentID,
		PositionID: m.PositionID,
		Score:      m.Score,
		Source:     string(source),
		OccurredAt: m.MatchDate,
	})
	return m, nil
}

// Revert удаляет назначение и возвращает агента и заявку в исходные статусы.
func (s *Service) Revert(ctx context.Context, matchID int) (*models.Match, error) {
	if matchID <= 0 {
		return nil, apperr.Validation("id", "match id must be positive")
	}
	m, err := s.store.RevertMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	s.metrics.MatchReverted()
	s.log.Info("match reverted",
		zap.Int("match_id", m.ID), zap.String("agent_id", m.AgentID), zap.String("position_id", m.PositionID))
	s.publish(ctx, events.Event{
		Type:       events.MatchReverted,
		MatchID:    m.ID,
		AgentID:    m.AgentID,
		PositionID: m.PositionID,
		OccurredAt: s.now().UTC(),
	})
	return m, nil
}

// ManualCandidates: свободные агенты для ручного выбора. Поиск без учёта регистра
// по ФИО и названию профиля.
func (s *Service) ManualCandidates(ctx context.Context, query string) ([]models.Agent, error) {
	agents, err := s.store.ListAgents(ctx, db.AgentFilter{Status: models.AgentAvailable})
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return agents, nil
	}
	out := []models.Agent{}
	for _, a := range agents {
		if strings.Contains(strings.ToLower(a.FullName), query) ||
			strings.Contains(strings.ToLower(a.ProfileName), query) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", string(e.Type)), zap.Int("match_id", e.MatchID), zap.Error(err))
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveOracle(string, time.Duration) {}
func (nopMetrics) MatchConfirmed(string)               {}
func (nopMetrics) MatchReverted()                      {}
