package stories

// SubmitChunkPayload is the body for both story creation and story edits.
// When IsChunk is false the whole payload is one complete story; otherwise
// Content is one fragment of a chunked upload session.
type SubmitChunkPayload struct {
	IsChunk       bool     `json:"is_chunk"`
	ChunkIndex    int      `json:"chunk_index" validate:"min=0"`
	TotalChunks   int      `json:"total_chunks" default:"1" validate:"min=1"`
	StoryID       *int     `json:"story_id,omitempty" validate:"omitempty,min=1"`
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=2,max=100"`
	Content       string   `json:"content" validate:"required,min=1,max=2500"`
	Image         *string  `json:"image,omitempty" validate:"omitempty,url,max=2000"`
	Audio         *string  `json:"audio,omitempty" validate:"omitempty,url,max=2000"`
	AudioDuration *float64 `json:"audio_duration,omitempty" validate:"omitempty,gt=0"`
}

type ListStoriesQuery struct {
	Limit    int  `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=50"`
	Offset   int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	AuthorID *int `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
}

type CreateCommentPayload struct {
	Body string `json:"body" mod:"trim" validate:"required,min=1,max=500"`
}

// UploadRequestPayload asks for a presigned media upload slot.
type UploadRequestPayload struct {
	Filename string `json:"filename" validate:"required,min=1,max=255"`
	Kind     string `json:"kind" validate:"required,oneof=image audio"`
}
