package api

type Parent struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	ChildIDs  []string `json:"child_ids"`
	CreatedAt int64    `json:"created_at"`
}

type Student struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ParentID  string `json:"parent_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type CreateParentRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Email    string   `json:"email" validate:"omitempty,email"`
	ChildIDs []string `json:"child_ids" validate:"dive,required"`
}

type CreateParentResponse struct {
	Parent *Parent `json:"parent"`
}

type CreateStudentRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	ParentID string `json:"parent_id"`
}

type CreateStudentResponse struct {
	Student *Student `json:"student"`
}
