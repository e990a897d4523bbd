package models

// StudentProfile is the part of a student's directory record billing needs.
type StudentProfile struct {
	// ID is the unique identifier for the student (UUID format).
	ID string

	// Name is the display name of the student.
	Name string

	// ParentID is the responsible parent, when the profile records one.
	// Students without it are resolved through ParentProfile.ChildIDs.
	ParentID *string

	// CreatedAt is the Unix timestamp when the student was created.
	CreatedAt int64
}

// ParentProfile is the part of a parent's directory record billing needs.
type ParentProfile struct {
	// ID is the unique identifier for the parent (UUID format).
	ID string

	// Name is the display name of the parent.
	Name string

	// Email is the parent's contact address.
	Email string

	// ChildIDs are the students this parent is responsible for.
	ChildIDs []string

	// CreatedAt is the Unix timestamp when the parent was created.
	CreatedAt int64
}
