package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is one node of a post's reply tree. The shape is identical at every
// depth; Replies nests arbitrarily. The whole tree lives inside the owning
// post's row as a single jsonb column, so a comment never exists apart from
// its post.
type Comment struct {
	ID        uuid.UUID      `json:"id"`
	PostID    uuid.UUID      `json:"post_id"`
	Author    AuthorSnapshot `json:"author"`
	Text      string         `json:"text"`
	Images    StringList     `json:"images"`
	LikedBy   UserIDSet      `json:"liked_by"`
	LaughedBy UserIDSet      `json:"laughed_by"`
	CreatedAt time.Time      `json:"created_at"`
	Replies   CommentList    `json:"replies"`
}

// CommentList is a sibling group, oldest first. It doubles as the jsonb
// codec for the replies column.
type CommentList []Comment

func (l CommentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Comment(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CommentList) Scan(value interface{}) error {
	return scanJSON(value, l, "replies")
}

// Find walks the sibling group depth-first and returns a pointer to the node
// with the given id, or nil. The pointer aliases the receiver's tree.
func (l CommentList) Find(id uuid.UUID) *Comment {
	for i := range l {
		if l[i].ID == id {
			return &l[i]
		}
		if c := l[i].Replies.Find(id); c != nil {
			return c
		}
	}
	return nil
}

// StringList is an ordered jsonb string array column (image URLs).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l, "string list")
}

// LinkPreview is the best-effort metadata snapshot fetched for the first URL
// in a post's text. Absent unless the preview service answered.
type LinkPreview struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}

func (p LinkPreview) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *LinkPreview) Scan(value interface{}) error {
	return scanJSON(value, p, "link preview")
}

type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Author      AuthorSnapshot `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	Category    string         `gorm:"size:50;index" json:"category"`
	Images      StringList     `gorm:"type:jsonb;default:'[]'" json:"images"`
	LinkPreview *LinkPreview   `gorm:"type:jsonb" json:"link_preview,omitempty"`
	LikedBy     UserIDSet      `gorm:"type:jsonb;default:'[]'" json:"liked_by"`
	LaughedBy   UserIDSet      `gorm:"type:jsonb;default:'[]'" json:"laughed_by"`
	Replies     CommentList    `gorm:"type:jsonb;default:'[]'" json:"replies"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index:,sort:desc" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

func scanJSON(value interface{}, dst interface{}, what string) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported %s column type %T", what, value)
	}
}
