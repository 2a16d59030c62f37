package db_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"redeploy/db"
	"redeploy/db/migrations"
	"redeploy/internal/apperr"
	"redeploy/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *db.Storage
	orgID    int
	otherOrg int
	profile  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	conn, err := db.Open(ctx, db.Config{
		Driver: db.DriverSQLite,
		DSN:    "file:" + filepath.Join(t.TempDir(), "test.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn.DB, db.DriverSQLite, log))

	store := db.NewStorage(conn)
	f := &fixture{store: store}

	org := &models.Organization{Name: "Ministerio de Salud"}
	require.NoError(t, store.CreateOrganization(ctx, org))
	other := &models.Organization{Name: "Agencia de Recaudación"}
	require.NoError(t, store.CreateOrganization(ctx, other))
	prof := &models.FunctionalProfile{Name: "Administrativo"}
	require.NoError(t, store.CreateProfile(ctx, prof))
	f.orgID, f.otherOrg, f.profile = org.ID, other.ID, prof.ID
	return f
}

func (f *fixture) agent(t *testing.T, id string) *models.Agent {
	t.Helper()
	a := &models.Agent{
		ID:                   id,
		FullName:             "Agent " + id,
		OriginOrgID:          f.orgID,
		ProfileID:            f.profile,
		KeyCompetencies:      "SAP, atención al público",
		WorkingHours:         40,
		AvailableForRotation: true,
		InterviewDate:        models.NewDate(2024, time.May, 15),
	}
	require.NoError(t, f.store.CreateAgent(context.Background(), a))
	return a
}

func (f *fixture) position(t *testing.T, id string) *models.PositionRequest {
	t.Helper()
	p := &models.PositionRequest{
		ID:                id,
		RequestingOrgID:   f.otherOrg,
		RequestingArea:    "Atención al Contribuyente",
		ProfileRequiredID: f.profile,
		MainFunctions:     "Recepción de trámites",
		HoursRequired:     40,
		RequestDate:       models.NewDate(2024, time.June, 1),
	}
	require.NoError(t, f.store.CreatePosition(context.Background(), p))
	return p
}

func TestCreateAgentResolvesNames(t *testing.T) {
	f := newFixture(t)
	a := f.agent(t, "A-101")

	require.Equal(t, models.AgentAvailable, a.Status)
	require.Equal(t, "Ministerio de Salud", a.OriginOrgName)
	require.Equal(t, "Administrativo", a.ProfileName)
	require.Equal(t, "2024-05-15", a.InterviewDate.String())
}

func TestCreateAgentDuplicateIDIsConflict(t *testing.T) {
	f := newFixture(t)
	f.agent(t, "A-101")

	dup := &models.Agent{ID: "A-101", FullName: "Other", OriginOrgID: f.orgID, ProfileID: f.profile, WorkingHours: 30, InterviewDate: models.NewDate(2024, 1, 1)}
	err := f.store.CreateAgent(context.Background(), dup)
	require.True(t, apperr.Is(err, apperr.KindConflict), err)
}

func TestCreateAgentUnknownOrganization(t *testing.T) {
	f := newFixture(t)
	a := &models.Agent{ID: "A-900", FullName: "X", OriginOrgID: 9999, ProfileID: f.profile, WorkingHours: 30, InterviewDate: models.NewDate(2024, 1, 1)}

	err := f.store.CreateAgent(context.Background(), a)
	require.True(t, apperr.Is(err, apperr.KindValidation), err)
}

func TestUpdateAgentMissing(t *testing.T) {
	f := newFixture(t)
	a := &models.Agent{ID: "A-404", FullName: "X", OriginOrgID: f.orgID, ProfileID: f.profile, WorkingHours: 30, InterviewDate: models.NewDate(2024, 1, 1)}

	err := f.store.UpdateAgent(context.Background(), a)
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)
}

func TestUpdateAgentKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.position(t, "B-501")
	require.NoError(t, f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: "B-501", Score: 90}))

	upd := &models.Agent{ID: "A-101", FullName: "Juan Manuel Pérez", OriginOrgID: f.orgID, ProfileID: f.profile, WorkingHours: 35, InterviewDate: models.NewDate(2024, 5, 20)}
	require.NoError(t, f.store.UpdateAgent(ctx, upd))
	require.Equal(t, models.AgentAssigned, upd.Status)
	require.Equal(t, 35, upd.WorkingHours)
}

func TestConfirmAndRevertMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.position(t, "POS-2001")

	m := &models.Match{AgentID: "A-101", PositionID: "POS-2001", Score: 87, Reasoning: "Strong profile match"}
	require.NoError(t, f.store.ConfirmMatch(ctx, m))
	require.NotZero(t, m.ID)
	require.False(t, m.MatchDate.IsZero())

	a, err := f.store.GetAgent(ctx, "A-101")
	require.NoError(t, err)
	require.Equal(t, models.AgentAssigned, a.Status)
	p, err := f.store.GetPosition(ctx, "POS-2001")
	require.NoError(t, err)
	require.Equal(t, models.PositionFilled, p.Status)

	stored, err := f.store.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, 87, stored.Score)
	require.Equal(t, "Agent A-101", stored.AgentName)

	reverted, err := f.store.RevertMatch(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "A-101", reverted.AgentID)

	a, err = f.store.GetAgent(ctx, "A-101")
	require.NoError(t, err)
	require.Equal(t, models.AgentAvailable, a.Status)
	p, err = f.store.GetPosition(ctx, "POS-2001")
	require.NoError(t, err)
	require.Equal(t, models.PositionOpen, p.Status)

	_, err = f.store.RevertMatch(ctx, m.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)

	matches, err := f.store.ListMatches(ctx, 0, 0)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestConfirmAssignedAgentLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.position(t, "B-501")
	f.position(t, "B-502")
	require.NoError(t, f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: "B-501", Score: 80}))

	err := f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: "B-502", Score: 70})
	require.True(t, apperr.Is(err, apperr.KindStateConflict), err)
	require.Contains(t, err.Error(), "agent A-101")

	p, err := f.store.GetPosition(ctx, "B-502")
	require.NoError(t, err)
	require.Equal(t, models.PositionOpen, p.Status)
	matches, err := f.store.ListMatches(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestConfirmFilledOrVoidPositionRollsBackAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.agent(t, "A-102")
	f.position(t, "B-501")
	void := &models.PositionRequest{ID: "B-600", RequestingOrgID: f.otherOrg, RequestingArea: "RRHH", ProfileRequiredID: f.profile, HoursRequired: 35, RequestDate: models.NewDate(2024, 6, 5), Status: models.PositionVoid}
	require.NoError(t, f.store.CreatePosition(ctx, void))
	require.NoError(t, f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: "B-501", Score: 80}))

	for _, pos := range []string{"B-501", "B-600"} {
		err := f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-102", PositionID: pos, Score: 70})
		require.True(t, apperr.Is(err, apperr.KindStateConflict), err)
		require.Contains(t, err.Error(), "position request "+pos)

		a, err := f.store.GetAgent(ctx, "A-102")
		require.NoError(t, err)
		require.Equal(t, models.AgentAvailable, a.Status, "agent update must roll back")
	}
}

func TestConfirmUnknownIDsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")

	err := f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-999", PositionID: "B-501", Score: 50})
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)

	err = f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: "B-999", Score: 50})
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)
	a, err := f.store.GetAgent(ctx, "A-101")
	require.NoError(t, err)
	require.Equal(t, models.AgentAvailable, a.Status)
}

func TestConcurrentConfirmSameAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	positions := []string{"B-501", "B-502", "B-503", "B-504"}
	for _, id := range positions {
		f.position(t, id)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(positions))
	for i, id := range positions {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: id, Score: 60})
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.True(t, apperr.Is(err, apperr.KindStateConflict), err)
	}
	require.Equal(t, 1, ok)

	open, err := f.store.ListPositions(ctx, db.PositionFilter{Status: models.PositionOpen})
	require.NoError(t, err)
	require.Len(t, open, len(positions)-1)
}

func TestDeleteReferencedOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.position(t, "B-501")

	err := f.store.DeleteOrganization(ctx, f.orgID)
	require.True(t, apperr.Is(err, apperr.KindReferentialConflict), err)
	err = f.store.DeleteOrganization(ctx, f.otherOrg)
	require.True(t, apperr.Is(err, apperr.KindReferentialConflict), err)
	err = f.store.DeleteProfile(ctx, f.profile)
	require.True(t, apperr.Is(err, apperr.KindReferentialConflict), err)

	unused := &models.Organization{Name: "Secretaría de Transporte"}
	require.NoError(t, f.store.CreateOrganization(ctx, unused))
	require.NoError(t, f.store.DeleteOrganization(ctx, unused.ID))

	err = f.store.DeleteOrganization(ctx, unused.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)

	unusedProfile := &models.FunctionalProfile{Name: "Técnico IT"}
	require.NoError(t, f.store.CreateProfile(ctx, unusedProfile))
	require.NoError(t, f.store.DeleteProfile(ctx, unusedProfile.ID))
}

func TestOrganizationNameUnique(t *testing.T) {
	f := newFixture(t)
	err := f.store.CreateOrganization(context.Background(), &models.Organization{Name: "Ministerio de Salud"})
	require.True(t, apperr.Is(err, apperr.KindConflict), err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "name", ae.Field)
}

func TestGetCatalogItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.store.GetOrganization(ctx, f.otherOrg)
	require.NoError(t, err)
	require.Equal(t, "Agencia de Recaudación", org.Name)

	prof, err := f.store.GetProfile(ctx, f.profile)
	require.NoError(t, err)
	require.Equal(t, "Administrativo", prof.Name)

	_, err = f.store.GetOrganization(ctx, 9999)
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)
	_, err = f.store.GetProfile(ctx, 9999)
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)
}

func TestListAgentsByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.agent(t, "A-102")
	f.position(t, "B-501")
	require.NoError(t, f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-102", PositionID: "B-501", Score: 75}))

	available, err := f.store.ListAgents(ctx, db.AgentFilter{Status: models.AgentAvailable})
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, "A-101", available[0].ID)

	all, err := f.store.ListAgents(ctx, db.AgentFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.agent(t, "A-101")
	f.agent(t, "A-102")
	f.position(t, "B-501")
	f.position(t, "B-502")
	require.NoError(t, f.store.ConfirmMatch(ctx, &models.Match{AgentID: "A-101", PositionID: "B-501", Score: 75}))

	st, err := f.store.DashboardStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.TotalAgents)
	require.Equal(t, 1, st.AvailableAgents)
	require.Equal(t, 2, st.TotalPositions)
	require.Equal(t, 1, st.OpenPositions)
	require.Equal(t, 50, st.FillRate)
	require.Equal(t, []models.ProfileCount{{Name: "Administrativo", Count: 2}}, st.AgentsByProfile)
}

func TestSaveUserUpsertsPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := &models.User{Email: "Admin@TalentoHR.com", PasswordHash: "h1"}
	require.NoError(t, f.store.SaveUser(ctx, u))
	require.NoError(t, f.store.SaveUser(ctx, &models.User{Email: "admin@talentohr.com", PasswordHash: "h2"}))

	got, err := f.store.GetUserByEmail(ctx, "ADMIN@talentohr.com")
	require.NoError(t, err)
	require.Equal(t, "h2", got.PasswordHash)
	require.Equal(t, u.ID, got.ID)

	_, err = f.store.GetUserByEmail(ctx, "nobody@talentohr.com")
	require.True(t, apperr.Is(err, apperr.KindNotFound), err)
}
