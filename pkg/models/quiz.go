package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   int       `bun:",nullzero" json:"created_by"`
	Title       string    `bun:",nullzero" json:"title"`
	Description *string   `json:"description"`

	Questions []*QuizQuestion `bun:"rel:has-many,join:id=quiz_id" json:"questions,omitempty"`
}

type QuizQuestion struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	QuizID        int       `bun:",nullzero" json:"quiz_id"`
	Sequence      int       `bun:",nullzero" json:"sequence"`
	Prompt        string    `bun:",nullzero" json:"prompt"`
	Options       string    `bun:",nullzero" json:"-"`
	OptionsParsed []string  `bun:"-" json:"options"`
	CorrectOption int       `json:"-"` // never leak answers in responses
}

// UnmarshalOptions parses the JSON-encoded options column.
func (qq *QuizQuestion) UnmarshalOptions() error {
	err := json.Unmarshal([]byte(qq.Options), &qq.OptionsParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

type QuizAttempt struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	QuizID    int       `bun:",nullzero" json:"quiz_id"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
}
