package matching

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"redeploy/models"
)

// Candidate: одна рекомендация оракула.
type Candidate struct {
	AgentID   string `json:"agentId"`
	FullName  string `json:"fullName"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`

	// AgentStatus заполняет Suggest по реестру; агент может быть уже не Available
	AgentStatus models.AgentStatus `json:"agentStatus,omitempty"`
}

var candidateKeys = []string{"agentId", "fullName", "score", "reasoning"}

// ParseCandidates строго разбирает ответ оракула: массив объектов ровно с четырьмя
// полями нужных типов. Любое отклонение считается ошибкой, частичных результатов нет.
func ParseCandidates(text string) ([]Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty oracle response")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("oracle response is not a JSON array: %w", err)
	}

	out := make([]Candidate, 0, len(items))
	for i, raw := range items {
		c, err := parseCandidate(raw)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		out = append(out, c)
	}

	// без обрезки: до MaxSuggestions список сокращает вызывающий, после сверки с реестром
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func parseCandidate(raw json.RawMessage) (Candidate, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Candidate{}, errors.New("not an object")
	}
	if len(fields) != len(candidateKeys) {
		return Candidate{}, fmt.Errorf("expected exactly %d fields, got %d", len(candidateKeys), len(fields))
	}

	var c Candidate
	var score float64
	targets := map[string]interface{}{
		"agentId":   &c.AgentID,
		"fullName":  &c.FullName,
		"score":     &score,
		"reasoning": &c.Reasoning,
	}
	for _, key := range candidateKeys {
		value, ok := fields[key]
		if !ok {
			return Candidate{}, fmt.Errorf("missing field %q", key)
		}
		// null распаковался бы в нулевое значение без ошибки
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return Candidate{}, fmt.Errorf("field %q is null", key)
		}
		if err := json.Unmarshal(value, targets[key]); err != nil {
			return Candidate{}, fmt.Errorf("field %q: %w", key, err)
		}
	}

	if strings.TrimSpace(c.AgentID) == "" {
		return Candidate{}, errors.New("agentId is empty")
	}
	if math.IsNaN(score) || score < 0 || score > 100 {
		return Candidate{}, fmt.Errorf("score %v is outside 0..100", score)
	}
	c.Score = int(math.Round(score))
	return c, nil
}
