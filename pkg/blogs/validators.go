package blogs

type CreateBlogPayload struct {
	Title       string `json:"title" mod:"trim" validate:"required,min=2,max=150"`
	Body        string `json:"body" validate:"required,min=1,max=20000"`
	IsPublished bool   `json:"is_published" default:"true"`
}

type UpdateBlogPayload struct {
	Title       *string `json:"title,omitempty" mod:"trim" validate:"omitempty,min=2,max=150"`
	Body        *string `json:"body,omitempty" validate:"omitempty,min=1,max=20000"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

type ListBlogsQuery struct {
	Limit    int  `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=50"`
	Offset   int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	AuthorID *int `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
}
