package models

import "time"

// Course represents the courses table
type Course struct {
	ID            int       `gorm:"primaryKey;column:id" json:"id"`
	Name          string    `gorm:"column:name" json:"name"`
	InstructorID  int       `gorm:"column:instructor_id" json:"instructor_id"`
	DirectoryPath string    `gorm:"column:directory_path" json:"directory_path"`
	Private       bool      `gorm:"column:private" json:"private"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TaMapping links a teaching assistant to a course.
type TaMapping struct {
	ID       int `gorm:"primaryKey;column:id" json:"id"`
	TaID     int `gorm:"column:ta_id" json:"ta_id"`
	CourseID int `gorm:"column:course_id" json:"course_id"`
}

func (Course) TableName() string {
	return "courses"
}

func (TaMapping) TableName() string {
	return "ta_mappings"
}
