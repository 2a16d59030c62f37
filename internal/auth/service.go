package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redeploy/internal/apperr"
	"redeploy/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	users  UserStore
	tokens *Tokens
	log    *zap.Logger
}

func NewService(users UserStore, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

type LoginResult struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}

// Login проверяет email и пароль. Неизвестный email и неверный пароль неразличимы снаружи.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Info("login failed: unknown email", zap.String("email", email))
		return nil, apperr.Auth("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Warn("bcrypt compare failed", zap.Error(err))
		}
		s.log.Info("login failed: wrong password", zap.String("email", email))
		return nil, apperr.Auth("invalid credentials")
	}

	token, session, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	s.log.Info("admin logged in", zap.Int("user_id", user.ID))
	return &LoginResult{Token: token, Session: session}, nil
}

// Authenticate разбирает bearer-токен в Session.
func (s *Service) Authenticate(token string) (*Session, error) {
	session, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.New(apperr.KindAuth, "invalid token", err)
	}
	return session, nil
}

func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apperr.Validation("password", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
