package domain

import "time"

// Area is a category an incident is filed under. Areas cannot be deleted while
// any incident references them; the caller checks before deletion.
type Area struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Color       string    `json:"color,omitempty" bson:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
