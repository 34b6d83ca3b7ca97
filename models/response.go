package models

import "time"

// ResponseMap pairs a reviewer with a reviewee for an assignment.
type ResponseMap struct {
	ID               int    `gorm:"primaryKey;column:id" json:"id"`
	ReviewedObjectID int    `gorm:"column:reviewed_object_id;index" json:"reviewed_object_id"`
	ReviewerID       int    `gorm:"column:reviewer_id" json:"reviewer_id"`
	RevieweeID       int    `gorm:"column:reviewee_id" json:"reviewee_id"`
	Type             string `gorm:"column:type" json:"type"`
}

// Response is a filled-in rubric.
type Response struct {
	ID          int       `gorm:"primaryKey;column:id" json:"id"`
	MapID       int       `gorm:"column:map_id;index" json:"map_id"`
	Round       *int      `gorm:"column:round" json:"round"`
	IsSubmitted bool      `gorm:"column:is_submitted" json:"is_submitted"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ResponseMap) TableName() string {
	return "response_maps"
}

func (Response) TableName() string {
	return "responses"
}
