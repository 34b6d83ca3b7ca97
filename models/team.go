package models

import "time"

// Team is a submitting team of an assignment (teams.parent_id = assignment).
type Team struct {
	ID        int       `gorm:"primaryKey;column:id" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	ParentID  int       `gorm:"column:parent_id;index" json:"parent_id"`
	Type      string    `gorm:"column:type;default:AssignmentTeam" json:"type"`
	Directory *string   `gorm:"column:directory_num" json:"directory_num,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Participant is a user enrolled in an assignment.
type Participant struct {
	ID       int    `gorm:"primaryKey;column:id" json:"id"`
	ParentID int    `gorm:"column:parent_id;index" json:"parent_id"`
	UserID   int    `gorm:"column:user_id" json:"user_id"`
	Type     string `gorm:"column:type;default:AssignmentParticipant" json:"type"`
	Handle   string `gorm:"column:handle" json:"handle"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

func (Participant) TableName() string {
	return "participants"
}
