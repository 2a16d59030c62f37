package seed_test

import (
	"context"
	"path/filepath"
	"testing"

	"redeploy/db"
	"redeploy/db/migrations"
	"redeploy/internal/seed"
	"redeploy/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *db.Storage {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Driver: db.DriverSQLite, DSN: "file:" + filepath.Join(t.TempDir(), "seed.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn.DB, db.DriverSQLite, zap.NewNop()))
	return db.NewStorage(conn)
}

func TestLoadDefault(t *testing.T) {
	f, err := seed.Load("")
	require.NoError(t, err)
	require.Len(t, f.Organizations, 5)
	require.Len(t, f.Profiles, 5)
	require.Len(t, f.Agents, 4)
	require.Len(t, f.Positions, 2)
	require.Equal(t, "admin@talentohr.com", f.Admin.Email)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f, err := seed.Load("")
	require.NoError(t, err)

	sum, err := seed.Apply(ctx, store, f, "$2a$12$hash", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, &seed.Summary{Organizations: 5, Profiles: 5, Agents: 4, Positions: 2, Admin: true}, sum)

	agent, err := store.GetAgent(ctx, "A-103")
	require.NoError(t, err)
	require.Equal(t, "Ministerio de Economía", agent.OriginOrgName)
	require.Equal(t, "Técnico IT", agent.ProfileName)
	require.False(t, agent.AvailableForRotation)
	require.Equal(t, models.AgentAvailable, agent.Status)

	pos, err := store.GetPosition(ctx, "B-501")
	require.NoError(t, err)
	require.Equal(t, models.PositionOpen, pos.Status)
	require.Equal(t, "2024-06-01", pos.RequestDate.String())

	again, err := seed.Apply(ctx, store, f, "", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, &seed.Summary{}, again)
}

func TestApplyUnknownReference(t *testing.T) {
	f := &seed.Fixture{
		Agents: []seed.Agent{{ID: "A-1", FullName: "x", OriginOrg: "Nowhere", Profile: "Nothing", WorkingHours: 40, InterviewDate: "2024-01-01"}},
	}
	_, err := seed.Apply(context.Background(), newStore(t), f, "", zap.NewNop())
	require.Error(t, err)
}
