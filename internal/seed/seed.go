// Package seed загружает стартовые справочники и демо-данные.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"redeploy/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixture []byte

type Fixture struct {
	Admin struct {
		Email string `yaml:"email"`
	} `yaml:"admin"`
	Organizations []string   `yaml:"organizations"`
	Profiles      []string   `yaml:"profiles"`
	Agents        []Agent    `yaml:"agents"`
	Positions     []Position `yaml:"positions"`
}

type Agent struct {
	ID                   string `yaml:"id"`
	FullName             string `yaml:"fullName"`
	OriginOrg            string `yaml:"originOrg"`
	Profile              string `yaml:"profile"`
	KeyCompetencies      string `yaml:"keyCompetencies"`
	WorkingHours         int    `yaml:"workingHours"`
	AvailableForRotation bool   `yaml:"availableForRotation"`
	InterviewDate        string `yaml:"interviewDate"`
}

type Position struct {
	ID              string `yaml:"id"`
	RequestingOrg   string `yaml:"requestingOrg"`
	RequestingArea  string `yaml:"requestingArea"`
	ProfileRequired string `yaml:"profileRequired"`
	MainFunctions   string `yaml:"mainFunctions"`
	HoursRequired   int    `yaml:"hoursRequired"`
	RequestDate     string `yaml:"requestDate"`
	Status          string `yaml:"status"`
}

// Load читает фикстуру из файла; при пустом path берётся встроенный набор.
func Load(path string) (*Fixture, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = b
	}
	f := &Fixture{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return f, nil
}

type Store interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	CreateOrganization(ctx context.Context, o *models.Organization) error
	ListProfiles(ctx context.Context) ([]models.FunctionalProfile, error)
	CreateProfile(ctx context.Context, p *models.FunctionalProfile) error
	AgentExists(ctx context.Context, id string) (bool, error)
	CreateAgent(ctx context.Context, a *models.Agent) error
	PositionExists(ctx context.Context, id string) (bool, error)
	CreatePosition(ctx context.Context, p *models.PositionRequest) error
	SaveUser(ctx context.Context, u *models.User) error
}

type Summary struct {
	Organizations int
	Profiles      int
	Agents        int
	Positions     int
	Admin         bool
}

// Apply добавляет недостающие записи. Существующие не меняются, повторный запуск безопасен.
// Если adminHash пустой, администратор не создаётся.
func Apply(ctx context.Context, store Store, f *Fixture, adminHash string, log *zap.Logger) (*Summary, error) {
	sum := &Summary{}

	orgs, err := store.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	orgIDs := make(map[string]int, len(orgs))
	for _, o := range orgs {
		orgIDs[o.Name] = o.ID
	}
	for _, name := range f.Organizations {
		if _, ok := orgIDs[name]; ok {
			continue
		}
		o := &models.Organization{Name: name}
		if err := store.CreateOrganization(ctx, o); err != nil {
			return nil, fmt.Errorf("organization %q: %w", name, err)
		}
		orgIDs[name] = o.ID
		sum.Organizations++
	}

	profiles, err := store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	profileIDs := make(map[string]int, len(profiles))
	for _, p := range profiles {
		profileIDs[p.Name] = p.ID
	}
	for _, name := range f.Profiles {
		if _, ok := profileIDs[name]; ok {
			continue
		}
		p := &models.FunctionalProfile{Name: name}
		if err := store.CreateProfile(ctx, p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		profileIDs[name] = p.ID
		sum.Profiles++
	}

	for _, a := range f.Agents {
		exists, err := store.AgentExists(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		orgID, ok := orgIDs[a.OriginOrg]
		if !ok {
			return nil, fmt.Errorf("agent %s: unknown organization %q", a.ID, a.OriginOrg)
		}
		profileID, ok := profileIDs[a.Profile]
		if !ok {
			return nil, fmt.Errorf("agent %s: unknown profile %q", a.ID, a.Profile)
		}
		date, err := models.ParseDate(a.InterviewDate)
		if err != nil {
			return nil, fmt.Errorf("agent %s: interviewDate: %w", a.ID, err)
		}
		err = store.CreateAgent(ctx, &models.Agent{
			ID:                   a.ID,
			FullName:             a.FullName,
			OriginOrgID:          orgID,
			ProfileID:            profileID,
			KeyCompetencies:      a.KeyCompetencies,
			WorkingHours:         a.WorkingHours,
			AvailableForRotation: a.AvailableForRotation,
			InterviewDate:        date,
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.ID, err)
		}
		sum.Agents++
	}

	for _, p := range f.Positions {
		exists, err := store.PositionExists(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		orgID, ok := orgIDs[p.RequestingOrg]
		if !ok {
			return nil, fmt.Errorf("position %s: unknown organization %q", p.ID, p.RequestingOrg)
		}
		profileID, ok := profileIDs[p.ProfileRequired]
		if !ok {
			return nil, fmt.Errorf("position %s: unknown profile %q", p.ID, p.ProfileRequired)
		}
		date, err := models.ParseDate(p.RequestDate)
		if err != nil {
			return nil, fmt.Errorf("position %s: requestDate: %w", p.ID, err)
		}
		err = store.CreatePosition(ctx, &models.PositionRequest{
			ID:                p.ID,
			RequestingOrgID:   orgID,
			RequestingArea:    p.RequestingArea,
			ProfileRequiredID: profileID,
			MainFunctions:     p.MainFunctions,
			HoursRequired:     p.HoursRequired,
			RequestDate:       date,
			Status:            models.PositionStatus(p.Status),
		})
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", p.ID, err)
		}
		sum.Positions++
	}

	if adminHash != "" && f.Admin.Email != "" {
		if err := store.SaveUser(ctx, &models.User{Email: f.Admin.Email, PasswordHash: adminHash}); err != nil {
			return nil, fmt.Errorf("admin user: %w", err)
		}
		sum.Admin = true
	}

	log.Info("seed applied",
		zap.Int("organizations", sum.Organizations),
		zap.Int("profiles", sum.Profiles),
		zap.Int("agents", sum.Agents),
		zap.Int("positions", sum.Positions),
		zap.Bool("admin", sum.Admin))
	return sum, nil
}
