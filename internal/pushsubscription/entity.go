package pushsubscription

import "time"

// Subscription is one browser push endpoint registered by a member.
type Subscription struct {
	ID             string    `yaml:"id"`
	MemberID       string    `yaml:"member_id"`
	OrganizationID string    `yaml:"organization_id"`
	Endpoint       string    `yaml:"endpoint"`
	P256dhKey      string    `yaml:"p256dh_key"`
	AuthKey        string    `yaml:"auth_key"`
	CreatedAt      time.Time `yaml:"created_at"`
}
