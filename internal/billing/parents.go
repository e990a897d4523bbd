package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

// parentResolver finds the parent responsible for paying a student's bills.
// The student's own profile wins; otherwise the first parent listing the
// student as a child is used.
type parentResolver struct {
	directory storage.Directory
	byChild   map[string]string
}

// newParentResolver loads every parent once and indexes them by child.
func newParentResolver(ctx context.Context, directory storage.Directory) (*parentResolver, error) {
	parents, err := directory.ListParents(ctx)
	if err != nil {
		return nil, persistErr("list parents", err)
	}
	byChild := make(map[string]string)
	for _, p := range parents {
		for _, child := range p.ChildIDs {
			if _, taken := byChild[child]; !taken {
				byChild[child] = p.ID
			}
		}
	}
	return &parentResolver{directory: directory, byChild: byChild}, nil
}

func (r *parentResolver) resolve(ctx context.Context, studentID string) (string, error) {
	student, err := r.directory.GetStudent(ctx, studentID)
	switch {
	case err == nil:
		if student.ParentID != nil && *student.ParentID != "" {
			return *student.ParentID, nil
		}
	case !errors.Is(err, storage.ErrNotFound):
		return "", persistErr("get student", err)
	}

	if parentID, ok := r.byChild[studentID]; ok {
		return parentID, nil
	}
	return "", fmt.Errorf("student %s: %w", studentID, ErrNoParent)
}
