package activitylog

import "time"

// Entry is one line of an organization's activity feed: who did what,
// when. Entries are append-only.
type Entry struct {
	ID             string    `yaml:"id" json:"id"`
	OrganizationID string    `yaml:"organization_id" json:"organizationId"`
	Description    string    `yaml:"description" json:"description"`
	ActorName      string    `yaml:"actor_name" json:"actorName"`
	Timestamp      time.Time `yaml:"timestamp" json:"timestamp"`
}
