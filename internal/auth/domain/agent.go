package domain

import "time"

type AgentStatus string

const (
	AgentActive    AgentStatus = "active"
	AgentSuspended AgentStatus = "suspended"
	AgentRevoked   AgentStatus = "revoked"
)

// Agent is an identity a developer registers to act for principals.
// Agents are soft-revoked, never hard-deleted, because grants refer to them.
type Agent struct {
	ID          string
	DID         string
	DeveloperID string
	Name        string
	Description string
	Scopes      []string // declared maximum scope set, empty means unrestricted
	Status      AgentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AgentDID builds the decentralized identifier for an agent id.
func AgentDID(agentID string) string {
	return "did:agentgrant:" + agentID
}
