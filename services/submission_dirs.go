package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"assignment-management-api/utils"
)

// SubmissionDirectory resolves where an assignment's submissions live under root:
// <root>/<course directory>/<assignment directory>, the course part omitted when unset.
func (s *AssignmentService) SubmissionDirectory(ctx context.Context, root string, assignmentID int) (string, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	if !assignment.HasDirectoryPath() {
		return "", fmt.Errorf("assignment %d: %s", assignmentID, MsgMissingDirectory)
	}

	parts := []string{root}
	if assignment.CourseID != nil {
		course, err := s.store.GetCourse(ctx, *assignment.CourseID)
		if err != nil && !IsNotFound(err) {
			return "", err
		}
		if course != nil {
			courseDir, err := utils.CleanDirectoryPath(course.DirectoryPath)
			if err != nil {
				return "", fmt.Errorf("course %d: %w", course.ID, err)
			}
			if courseDir != "" {
				parts = append(parts, courseDir)
			}
		}
	}
	dir, err := utils.CleanDirectoryPath(assignment.DirectoryPath)
	if err != nil {
		return "", fmt.Errorf("assignment %d: %w", assignmentID, err)
	}
	return filepath.Join(append(parts, filepath.FromSlash(dir))...), nil
}

// EnsureSubmissionDirectory creates the assignment's submission directory and reports
// whether it already existed.
func (s *AssignmentService) EnsureSubmissionDirectory(ctx context.Context, root string, assignmentID int) (string, bool, error) {
	dir, err := s.SubmissionDirectory(ctx, root, assignmentID)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, false, nil
}
