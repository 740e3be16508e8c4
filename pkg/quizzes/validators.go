package quizzes

type CreateQuestionPayload struct {
	Prompt        string   `json:"prompt" mod:"trim" validate:"required,min=1,max=500"`
	Options       []string `json:"options" validate:"required,min=2,max=10,dive,required,max=200"`
	CorrectOption int      `json:"correct_option" validate:"min=0"`
}

type CreateQuizPayload struct {
	Title       string                  `json:"title" mod:"trim" validate:"required,min=2,max=150"`
	Description *string                 `json:"description,omitempty" validate:"omitempty,max=1000"`
	Questions   []CreateQuestionPayload `json:"questions" validate:"required,min=1,max=50,dive"`
}

type ListQuizzesQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=50"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

type SubmitAttemptPayload struct {
	Answers []int `json:"answers" validate:"required,min=1,max=50"`
}

type ListAttemptsQuery struct {
	QuizID *int `query:"quiz_id" json:"quiz_id,omitempty" validate:"omitempty,min=1"`
}
