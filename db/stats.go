package db

import (
	"context"

	"redeploy/models"
)

// DashboardStats считает сводку для главной страницы.
func (s *Storage) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	st := &models.DashboardStats{}

	counts := []struct {
		dst   *int
		query string
		args  []interface{}
	}{
		{&st.TotalAgents, `SELECT COUNT(1) FROM agents`, nil},
		{&st.AvailableAgents, `SELECT COUNT(1) FROM agents WHERE status = ?`, []interface{}{models.AgentAvailable}},
		{&st.TotalPositions, `SELECT COUNT(1) FROM position_requests`, nil},
		{&st.OpenPositions, `SELECT COUNT(1) FROM position_requests WHERE status = ?`, []interface{}{models.PositionOpen}},
		{&st.FilledPositions, `SELECT COUNT(1) FROM position_requests WHERE status = ?`, []interface{}{models.PositionFilled}},
	}
	for _, c := range counts {
		n, err := countRows(ctx, s.db, c.query, c.args...)
		if err != nil {
			return nil, mapDriverError(err, "dashboard")
		}
		*c.dst = n
	}
	if st.TotalPositions > 0 {
		st.FillRate = (st.FilledPositions*100 + st.TotalPositions/2) / st.TotalPositions
	}

	st.AgentsByProfile = []models.ProfileCount{}
	query := `
        SELECT p.name AS name, COUNT(a.id) AS count
        FROM functional_profiles p
        LEFT JOIN agents a ON a.profile_id = p.id
        GROUP BY p.id, p.name
        ORDER BY p.name ASC`
	if err := s.db.SelectContext(ctx, &st.AgentsByProfile, query); err != nil {
		return nil, mapDriverError(err, "dashboard")
	}
	return st, nil
}
