package models

import (
	"time"
	"unicode/utf8"
)

// Post is a text entry written by a User, optionally attached to a Group.
// Posts are listed newest first.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"index:idx_posts_created_at,sort:desc" json:"created_at"`
	Image      string    `gorm:"size:255" json:"image,omitempty"`
	ImageThumb string    `gorm:"size:255" json:"image_thumb,omitempty"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID    *uint     `gorm:"index" json:"group_id,omitempty"`
	Group      *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Comments   []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// Preview returns the first 15 characters of the text.
func (p Post) Preview() string {
	const n = 15
	if utf8.RuneCountInString(p.Text) <= n {
		return p.Text
	}
	return string([]rune(p.Text)[:n])
}

// HasImage reports whether the post carries an uploaded image.
func (p Post) HasImage() bool {
	return p.Image != ""
}
