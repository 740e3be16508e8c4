package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:bl"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    int       `bun:",nullzero" json:"author_id"`
	Title       string    `bun:",nullzero" json:"title"`
	Body        string    `bun:",nullzero" json:"body"`
	IsPublished bool      `json:"is_published"`

	Author *User `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}
