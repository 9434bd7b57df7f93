package directory

// Member is an individual in the organization directory.
type Member struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	ProfileRef string `yaml:"profile_ref,omitempty"`
}

// Committee is a named, persistent group of members with a head. The task
// engine only ever reads committees; membership is maintained by the
// directory sync outside this module.
type Committee struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	HeadID    string   `yaml:"head_id"`
	MemberIDs []string `yaml:"member_ids"`
}
