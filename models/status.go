package models

import "fmt"

// AgentStatus: закрытый набор статусов агента. Менять его могут только сценарии назначения.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "Available"
	AgentAssigned  AgentStatus = "Assigned"
)

func (s AgentStatus) Valid() bool {
	return s == AgentAvailable || s == AgentAssigned
}

type PositionStatus string

const (
	PositionOpen   PositionStatus = "Open"
	PositionFilled PositionStatus = "Filled"
	PositionVoid   PositionStatus = "Void"
)

func (s PositionStatus) Valid() bool {
	switch s {
	case PositionOpen, PositionFilled, PositionVoid:
		return true
	}
	return false
}

// Transition: переход машины состояний агента/позиции
type Transition string

const (
	TransitionConfirm Transition = "confirm"
	TransitionRevert  Transition = "revert"
)

// AgentTransition возвращает пару (from, to) для агента.
func AgentTransition(t Transition) (from, to AgentStatus) {
	switch t {
	case TransitionConfirm:
		return AgentAvailable, AgentAssigned
	case TransitionRevert:
		return AgentAssigned, AgentAvailable
	}
	panic(fmt.Sprintf("models: unknown transition %q", t))
}

func PositionTransition(t Transition) (from, to PositionStatus) {
	switch t {
	case TransitionConfirm:
		return PositionOpen, PositionFilled
	case TransitionRevert:
		return PositionFilled, PositionOpen
	}
	panic(fmt.Sprintf("models: unknown transition %q", t))
}
