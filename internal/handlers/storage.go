package handlers

import (
	"context"

	"redeploy/db"
	"redeploy/models"
)

type StorageInterface interface {
	Ping(ctx context.Context) error

	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	GetOrganization(ctx context.Context, id int) (*models.Organization, error)
	CreateOrganization(ctx context.Context, o *models.Organization) error
	UpdateOrganization(ctx context.Context, o *models.Organization) error
	DeleteOrganization(ctx context.Context, id int) error

	ListProfiles(ctx context.Context) ([]models.FunctionalProfile, error)
	GetProfile(ctx context.Context, id int) (*models.FunctionalProfile, error)
	CreateProfile(ctx context.Context, p *models.FunctionalProfile) error
	UpdateProfile(ctx context.Context, p *models.FunctionalProfile) error
	DeleteProfile(ctx context.Context, id int) error

	ListAgents(ctx context.Context, f db.AgentFilter) ([]models.Agent, error)
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	CreateAgent(ctx context.Context, a *models.Agent) error
	UpdateAgent(ctx context.Context, a *models.Agent) error

	ListPositions(ctx context.Context, f db.PositionFilter) ([]models.PositionRequest, error)
	GetPosition(ctx context.Context, id string) (*models.PositionRequest, error)
	CreatePosition(ctx context.Context, p *models.PositionRequest) error
	UpdatePosition(ctx context.Context, p *models.PositionRequest) error

	ListMatches(ctx context.Context, limit, offset int) ([]models.MatchDetail, error)
	ConfirmMatch(ctx context.Context, m *models.Match) error
	RevertMatch(ctx context.Context, id int) (*models.Match, error)

	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}
