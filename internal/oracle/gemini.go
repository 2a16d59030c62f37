// Package oracle содержит адаптер генеративной модели Gemini для подбора кандидатов.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redeploy/internal/matching"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string

	// BaseURL переопределяет адрес API (используется в тестах)
	BaseURL string
}

type Gemini struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGemini возвращает matching.ErrOracleNotConfigured, если ключ не задан.
func NewGemini(ctx context.Context, cfg Config, log *zap.Logger) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, matching.ErrOracleNotConfigured
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, model: model, log: log}, nil
}

// candidatesSchema: массив {agentId, fullName, score, reasoning}, все поля обязательны.
func candidatesSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"agentId":   {Type: genai.TypeString},
				"fullName":  {Type: genai.TypeString},
				"score":     {Type: genai.TypeNumber},
				"reasoning": {Type: genai.TypeString},
			},
			Required:         []string{"agentId", "fullName", "score", "reasoning"},
			PropertyOrdering: []string{"agentId", "fullName", "score", "reasoning"},
		},
	}
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   candidatesSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		reason := "no candidates"
		if len(resp.Candidates) > 0 {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", errors.New("gemini returned empty response: " + reason)
	}
	g.log.Debug("gemini response received", zap.String("model", g.model), zap.Int("len", len(text)))
	return text, nil
}
