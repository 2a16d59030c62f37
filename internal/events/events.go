// Package events публикует события назначений во внешнюю шину.
package events

import (
	"context"
	"time"
)

type Type string

const (
	MatchConfirmed Type = "match.confirmed"
	MatchReverted  Type = "match.reverted"
)

type Event struct {
	Type       Type      `json:"type"`
	MatchID    int       `json:"matchId"`
	AgentID    string    `json:"agentId"`
	PositionID string    `json:"positionId"`
	Score      int       `json:"score,omitempty"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher доставляет событие. Ошибка доставки не должна откатывать назначение.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop используется, когда NATS_URL не задан.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
