package services

import (
	"context"

	"assignment-management-api/models"
)

// CanManage reports whether user may edit, update or list submissions of the assignment:
// administrators, the assignment's instructor, the course instructor, or a TA of the course.
func (s *AssignmentService) CanManage(ctx context.Context, user models.User, assignmentID int) (bool, error) {
	if user.HasAdminPrivileges() {
		return true, nil
	}
	if !user.HasTAPrivileges() {
		return false, nil
	}

	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return false, err
	}
	if assignment.InstructorID == user.ID {
		return true, nil
	}
	if assignment.CourseID == nil {
		return false, nil
	}

	course, err := s.store.GetCourse(ctx, *assignment.CourseID)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if course.InstructorID == user.ID {
		return true, nil
	}
	return s.store.IsTAForCourse(ctx, user.ID, course.ID)
}
