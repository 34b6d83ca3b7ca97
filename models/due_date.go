package models

import "time"

// DeadlineType identifies what a due date closes (deadline_types.id).
type DeadlineType int

const (
	DeadlineTypeSubmission    DeadlineType = 1
	DeadlineTypeReview        DeadlineType = 2
	DeadlineTypeMetareview    DeadlineType = 5
	DeadlineTypeDropTopic     DeadlineType = 6
	DeadlineTypeSignUp        DeadlineType = 7
	DeadlineTypeTeamFormation DeadlineType = 8
)

// DefaultReminderThreshold is the number of hours before a deadline that
// reminder mail goes out when the due date does not set one.
const DefaultReminderThreshold = 1

func (t DeadlineType) String() string {
	switch t {
	case DeadlineTypeSubmission:
		return "submission"
	case DeadlineTypeReview:
		return "review"
	case DeadlineTypeMetareview:
		return "metareview"
	case DeadlineTypeDropTopic:
		return "drop_topic"
	case DeadlineTypeSignUp:
		return "signup"
	case DeadlineTypeTeamFormation:
		return "team_formation"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the known deadline types.
func (t DeadlineType) Valid() bool {
	return t.String() != "unknown"
}

// DueDate represents an assignment due date (due_dates, type AssignmentDueDate).
type DueDate struct {
	ID             int          `gorm:"primaryKey;column:id" json:"id"`
	ParentID       int          `gorm:"column:parent_id;index" json:"parent_id"`
	DeadlineTypeID DeadlineType `gorm:"column:deadline_type_id" json:"deadline_type_id"`
	DueAt          *time.Time   `gorm:"column:due_at" json:"due_at"`
	DeadlineName   *string      `gorm:"column:deadline_name" json:"deadline_name"`
	DescriptionURL *string      `gorm:"column:description_url" json:"description_url"`
	Round          int          `gorm:"column:round" json:"round"`
	Threshold      int          `gorm:"column:threshold;default:1" json:"threshold"`
	Type           string       `gorm:"column:type;default:AssignmentDueDate" json:"-"`
	CreatedAt      time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (DueDate) TableName() string {
	return "due_dates"
}

// HasNameOrURL reports whether the deadline carries a display name or description link.
func (d DueDate) HasNameOrURL() bool {
	return trimmed(StringValue(d.DeadlineName)) != "" || trimmed(StringValue(d.DescriptionURL)) != ""
}

// ReminderAt returns when the reminder for this due date should be sent.
func (d DueDate) ReminderAt() (time.Time, bool) {
	if d.DueAt == nil {
		return time.Time{}, false
	}
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultReminderThreshold
	}
	return d.DueAt.Add(-time.Duration(threshold) * time.Hour), true
}
