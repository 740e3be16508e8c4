package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Story is a long-form post assembled from one or more uploaded chunks. While
// IsComplete is false the story is a draft under construction: it never shows
// up in public listings and can't be commented on or liked.
type Story struct {
	bun.BaseModel `bun:"table:stories,alias:s"`

	ID            int        `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AuthorID      int        `bun:",nullzero" json:"author_id"`
	Title         *string    `json:"title"`
	Content       string     `json:"content"`
	ImageURL      *string    `json:"image_url"`
	AudioURL      *string    `json:"audio_url"`
	AudioDuration *float64   `json:"audio_duration"`
	IsComplete    bool       `json:"is_complete"`

	// Relations
	Author   *User      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Comments []*Comment `bun:"rel:has-many,join:id=story_id" json:"comments,omitempty"`
	Likes    []*Like    `bun:"rel:has-many,join:id=story_id" json:"likes,omitempty"`
}

// StoryChunkTracker is the bookkeeping record for one in-progress (or
// most-recent) chunked upload session, keyed 1:1 by story. Content mirrors the
// story's content field during the session; ReceivedChunks and Content length
// only ever grow within a session. The row is reset in place when a client
// restarts an edit session at chunk 0, and deleted when the story is deleted.
type StoryChunkTracker struct {
	bun.BaseModel `bun:"table:story_chunk_trackers,alias:ct"`

	StoryID        int       `bun:",pk" json:"story_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Content        string    `json:"-"`
	ChunkIndex     int       `json:"chunk_index"`
	ReceivedChunks int       `json:"received_chunks"`
	TotalChunks    int       `json:"total_chunks"`
	IsComplete     bool      `json:"is_complete"`
}

type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	StoryID   int       `bun:",nullzero" json:"story_id"`
	AuthorID  int       `bun:",nullzero" json:"author_id"`
	Body      string    `bun:",nullzero" json:"body"`

	Author *User `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}

type Like struct {
	bun.BaseModel `bun:"table:likes,alias:l"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	StoryID   int       `bun:",nullzero" json:"story_id"`
	UserID    int       `bun:",nullzero" json:"user_id"`
}
