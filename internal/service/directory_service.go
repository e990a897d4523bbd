package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api/billingconnect"
)

// DirectoryService implements billingconnect.DirectoryServiceHandler.
type DirectoryService struct {
	directory storage.Directory
}

var _ billingconnect.DirectoryServiceHandler = (*DirectoryService)(nil)

// NewDirectoryService creates a DirectoryService with the given storage backend.
func NewDirectoryService(directory storage.Directory) *DirectoryService {
	return &DirectoryService{directory: directory}
}

// CreateParent registers a parent and the students they pay for.
func (s *DirectoryService) CreateParent(ctx context.Context, req *connect.Request[api.CreateParentRequest]) (*connect.Response[api.CreateParentResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validate.Struct(req.Msg); err != nil {
		return nil, toConnectError("CreateParent", err)
	}

	parent := &models.ParentProfile{
		Name:     strings.TrimSpace(req.Msg.Name),
		Email:    req.Msg.Email,
		ChildIDs: req.Msg.ChildIDs,
	}
	if parent.ChildIDs == nil {
		parent.ChildIDs = []string{}
	}
	if err := s.directory.CreateParent(ctx, parent); err != nil {
		return nil, toConnectError("CreateParent", err)
	}
	slog.Info("Parent created", "parent_id", parent.ID, "children", len(parent.ChildIDs))

	return connect.NewResponse(&api.CreateParentResponse{Parent: &api.Parent{
		ID:        parent.ID,
		Name:      parent.Name,
		Email:     parent.Email,
		ChildIDs:  parent.ChildIDs,
		CreatedAt: parent.CreatedAt,
	}}), nil
}

// CreateStudent registers a student, optionally linked to a parent.
func (s *DirectoryService) CreateStudent(ctx context.Context, req *connect.Request[api.CreateStudentRequest]) (*connect.Response[api.CreateStudentResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validate.Struct(req.Msg); err != nil {
		return nil, toConnectError("CreateStudent", err)
	}

	student := &models.StudentProfile{Name: strings.TrimSpace(req.Msg.Name)}
	if req.Msg.ParentID != "" {
		parentID := req.Msg.ParentID
		student.ParentID = &parentID
	}
	if err := s.directory.CreateStudent(ctx, student); err != nil {
		return nil, toConnectError("CreateStudent", err)
	}
	slog.Info("Student created", "student_id", student.ID)

	return connect.NewResponse(&api.CreateStudentResponse{Student: &api.Student{
		ID:        student.ID,
		Name:      student.Name,
		ParentID:  req.Msg.ParentID,
		CreatedAt: student.CreatedAt,
	}}), nil
}
