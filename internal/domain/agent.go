package domain

import "time"

// AgentRole enumerates support-desk roles.
type AgentRole string

const (
	AgentRoleAgent    AgentRole = "AGENT"
	AgentRoleTeamLead AgentRole = "TEAM_LEAD"
	AgentRoleAdmin    AgentRole = "ADMIN"
)

// Agent is an authenticated support analyst operating the workbench.
type Agent struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         AgentRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
