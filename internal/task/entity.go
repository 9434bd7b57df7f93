package task

import "time"

// Status is the lifecycle state of a task. Except for the sticky
// Completed state it is always re-derivable from the task's dates, its
// submissions and the current time.
type Status string

const (
	StatusStarted         Status = "started"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusOverdue         Status = "overdue"
	StatusExtended        Status = "extended"
	StatusExtendedOverdue Status = "extended_overdue"
)

// DisplayName returns the human-readable label for the status.
func (s Status) DisplayName() string {
	switch s {
	case StatusStarted:
		return "Started"
	case StatusInProgress:
		return "In-Progress"
	case StatusCompleted:
		return "Completed"
	case StatusOverdue:
		return "Overdue"
	case StatusExtended:
		return "Extended"
	case StatusExtendedOverdue:
		return "Extended-Overdue"
	default:
		return string(s)
	}
}

// Task is a unit of work assigned to members and committees of one
// organization.
type Task struct {
	ID             string `yaml:"id" json:"id"`
	OrganizationID string `yaml:"organization_id" json:"organizationId"`
	// EventID links the task to a calendar event context. Empty means a
	// general task.
	EventID     string `yaml:"event_id,omitempty" json:"eventId,omitempty"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`

	StartTime time.Time `yaml:"start_time" json:"startTime"`
	DueTime   time.Time `yaml:"due_time" json:"dueTime"`

	AssignedMemberIDs    []string `yaml:"assigned_member_ids" json:"assignedMemberIds"`
	AssignedCommitteeIDs []string `yaml:"assigned_committee_ids" json:"assignedCommitteeIds"`

	Status Status `yaml:"status" json:"status"`

	// CreatedBy is the creator's display name captured at creation time,
	// not a live directory reference. CreatedByID keeps the identity so
	// submission notifications can reach the creator.
	CreatedBy   string `yaml:"created_by" json:"createdBy"`
	CreatedByID string `yaml:"created_by_id,omitempty" json:"createdById,omitempty"`

	Attachments []string     `yaml:"attachments,omitempty" json:"attachments,omitempty"`
	Submissions []Submission `yaml:"submissions,omitempty" json:"submissions,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Submission is evidence of work against a task. The list on a task is
// append-only and capped.
type Submission struct {
	SubmitterID   string    `yaml:"submitter_id" json:"submitterId"`
	SubmitterName string    `yaml:"submitter_name" json:"submitterName"`
	Content       string    `yaml:"content" json:"content"`
	Attachments   []string  `yaml:"attachments,omitempty" json:"attachments,omitempty"`
	SubmittedAt   time.Time `yaml:"submitted_at" json:"submittedAt"`
	Comments      []Comment `yaml:"comments,omitempty" json:"comments,omitempty"`
}

// Comment is a remark on one submission.
type Comment struct {
	AuthorID   string    `yaml:"author_id" json:"authorId"`
	AuthorName string    `yaml:"author_name" json:"authorName"`
	Text       string    `yaml:"text" json:"text"`
	PostedAt   time.Time `yaml:"posted_at" json:"postedAt"`
}
