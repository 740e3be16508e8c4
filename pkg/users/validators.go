package users

type ListUsersQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Role     *string `query:"role" json:"role,omitempty" validate:"omitempty,role"`
	IsActive *bool   `query:"is_active" json:"is_active,omitempty"`
}

type UpdateUserPayload struct {
	Name     *string `json:"name,omitempty" mod:"trim" validate:"omitempty,min=1,max=100"`
	Role     *string `json:"role,omitempty" validate:"omitempty,role"`
	IsActive *bool   `json:"is_active,omitempty"`
}
