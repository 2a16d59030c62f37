package models

import "time"

// Сущность Организации
type Organization struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Сущность Функционального профиля
type FunctionalProfile struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Сущность Агента (сотрудник, ожидающий перевода)
type Agent struct {
	ID                   string      `db:"id" json:"id"`
	FullName             string      `db:"full_name" json:"fullName"`
	OriginOrgID          int         `db:"origin_org_id" json:"originOrgId"`
	OriginOrgName        string      `db:"origin_org_name" json:"originOrg"`
	ProfileID            int         `db:"profile_id" json:"profileId"`
	ProfileName          string      `db:"profile_name" json:"profile"`
	KeyCompetencies      string      `db:"key_competencies" json:"keyCompetencies"`
	WorkingHours         int         `db:"working_hours" json:"workingHours"`
	AvailableForRotation bool        `db:"available_for_rotation" json:"availableForRotation"`
	InterviewDate        Date        `db:"interview_date" json:"interviewDate"`
	Status               AgentStatus `db:"status" json:"status"`
}

// Сущность Заявки на позицию
type PositionRequest struct {
	ID                  string         `db:"id" json:"id"`
	RequestingOrgID     int            `db:"requesting_org_id" json:"requestingOrgId"`
	RequestingOrgName   string         `db:"requesting_org_name" json:"requestingOrg"`
	RequestingArea      string         `db:"requesting_area" json:"requestingArea"`
	ProfileRequiredID   int            `db:"profile_required_id" json:"profileRequiredId"`
	ProfileRequiredName string         `db:"profile_required_name" json:"profileRequired"`
	MainFunctions       string         `db:"main_functions" json:"mainFunctions"`
	HoursRequired       int            `db:"hours_required" json:"hoursRequired"`
	RequestDate         Date           `db:"request_date" json:"requestDate"`
	Status              PositionStatus `db:"status" json:"status"`
}

// Сущность Назначения: связывает одного агента с одной позицией
type Match struct {
	ID         int       `db:"id" json:"id"`
	AgentID    string    `db:"agent_id" json:"agentId"`
	PositionID string    `db:"position_id" json:"positionId"`
	MatchDate  time.Time `db:"match_date" json:"matchDate"`
	Score      int       `db:"score" json:"score"`
	Reasoning  string    `db:"reasoning" json:"reasoning"`
}

// MatchDetail: назначение вместе с именами для списка в UI
type MatchDetail struct {
	Match
	AgentName         string `db:"agent_name" json:"agentName"`
	RequestingOrgName string `db:"requesting_org_name" json:"requestingOrg"`
	RequestingArea    string `db:"requesting_area" json:"requestingArea"`
}

// Учётная запись администратора
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type ProfileCount struct {
	Name  string `db:"name" json:"name"`
	Count int    `db:"count" json:"count"`
}

// Сводка для дашборда
type DashboardStats struct {
	TotalAgents     int            `json:"totalAgents"`
	AvailableAgents int            `json:"availableAgents"`
	TotalPositions  int            `json:"totalPositions"`
	OpenPositions   int            `json:"openPositions"`
	FilledPositions int            `json:"filledPositions"`
	FillRate        int            `json:"fillRate"`
	AgentsByProfile []ProfileCount `json:"agentsByProfile"`
}
