package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assignment-management-api/config"
	"assignment-management-api/models"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		db = config.DB
	}
	return &GormStore{db: db}
}

func (s *GormStore) GetAssignment(ctx context.Context, id int) (*models.Assignment, error) {
	var assignment models.Assignment
	err := s.db.WithContext(ctx).Preload("Instructor").Preload("Course").
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to load assignment %d: %w", id, err)
	}
	return &assignment, nil
}

func (s *GormStore) AssignmentNameTaken(ctx context.Context, name string, courseID *int, excludeID int) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Assignment{}).Where("name = ?", name)
	if courseID == nil {
		q = q.Where("course_id IS NULL")
	} else {
		q = q.Where("course_id = ?", *courseID)
	}
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check assignment name: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) ListDueDates(ctx context.Context, assignmentID int) ([]models.DueDate, error) {
	var rows []models.DueDate
	err := s.db.WithContext(ctx).
		Where("parent_id = ? AND type = ?", assignmentID, "AssignmentDueDate").
		Order("due_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListAssignmentQuestionnaires(ctx context.Context, assignmentID int) ([]models.AssignmentQuestionnaire, error) {
	var rows []models.AssignmentQuestionnaire
	err := s.db.WithContext(ctx).Preload("Questionnaire").
		Where("assignment_id = ?", assignmentID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListTopics(ctx context.Context, assignmentID int) ([]models.SignUpTopic, error) {
	var rows []models.SignUpTopic
	err := s.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListTagPromptDeployments(ctx context.Context, assignmentID int) ([]models.TagPromptDeployment, error) {
	var rows []models.TagPromptDeployment
	err := s.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListTeams(ctx context.Context, assignmentID int) ([]models.Team, error) {
	var rows []models.Team
	err := s.db.WithContext(ctx).Where("parent_id = ? AND type = ?", assignmentID, "AssignmentTeam").
		Order("name ASC").Find(&rows).Error
	return rows, err
}

func (s *GormStore) CountParticipants(ctx context.Context, assignmentID int) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Participant{}).
		Where("parent_id = ? AND type = ?", assignmentID, "AssignmentParticipant").
		Count(&total).Error
	return total, err
}

func (s *GormStore) CountResponses(ctx context.Context, assignmentID int) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Table("responses AS r").
		Joins("JOIN response_maps AS rm ON rm.id = r.map_id").
		Where("rm.reviewed_object_id = ?", assignmentID).
		Count(&total).Error
	return total, err
}

func (s *GormStore) ListParticipantEmails(ctx context.Context, assignmentID int) ([]string, error) {
	var emails []string
	err := s.db.WithContext(ctx).Table("participants AS p").
		Select("DISTINCT u.email").
		Joins("JOIN users AS u ON u.id = p.user_id").
		Where("p.parent_id = ? AND p.type = ? AND u.email <> ''", assignmentID, "AssignmentParticipant").
		Scan(&emails).Error
	return emails, err
}

func (s *GormStore) ListSuggestions(ctx context.Context, assignmentID int) ([]models.Suggestion, error) {
	var rows []models.Suggestion
	err := s.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (s *GormStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("(name = ? OR email = ?) AND deleted_at IS NULL", login, login).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *GormStore) IsTAForCourse(ctx context.Context, userID, courseID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TaMapping{}).
		Where("ta_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ListCoursesForUser(ctx context.Context, user models.User) ([]models.Course, error) {
	var courses []models.Course
	q := s.db.WithContext(ctx).Model(&models.Course{})
	if !user.HasAdminPrivileges() {
		q = q.Where("instructor_id = ? OR id IN (?)", user.ID,
			s.db.Model(&models.TaMapping{}).Select("course_id").Where("ta_id = ?", user.ID))
	}
	err := q.Order("name ASC").Find(&courses).Error
	return courses, err
}

func (s *GormStore) CreateAssignment(ctx context.Context, bundle *AssignmentBundle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignment := &bundle.Assignment
		if err := tx.Omit("Instructor", "Course").Create(assignment).Error; err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		for i := range bundle.DueDates {
			bundle.DueDates[i].ID = 0
			bundle.DueDates[i].ParentID = assignment.ID
		}
		if len(bundle.DueDates) > 0 {
			if err := tx.Create(&bundle.DueDates).Error; err != nil {
				return fmt.Errorf("failed to create due dates: %w", err)
			}
		}

		for i := range bundle.AssignmentQuestionnaires {
			bundle.AssignmentQuestionnaires[i].ID = 0
			bundle.AssignmentQuestionnaires[i].AssignmentID = assignment.ID
		}
		if len(bundle.AssignmentQuestionnaires) > 0 {
			if err := tx.Omit("Questionnaire").Create(&bundle.AssignmentQuestionnaires).Error; err != nil {
				return fmt.Errorf("failed to attach questionnaires: %w", err)
			}
		}

		for i := range bundle.Topics {
			bundle.Topics[i].ID = 0
			bundle.Topics[i].AssignmentID = assignment.ID
		}
		if len(bundle.Topics) > 0 {
			if err := tx.Create(&bundle.Topics).Error; err != nil {
				return fmt.Errorf("failed to create topics: %w", err)
			}
		}
		return nil
	})
}

func (s *GormStore) UpdateAssignment(ctx context.Context, bundle *AssignmentBundle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignment := &bundle.Assignment
		if err := checkOwned(tx, &models.DueDate{}, "parent_id", assignment.ID, dueDateIDs(bundle.DueDates), ErrInvalidDueDate); err != nil {
			return err
		}
		if err := checkOwned(tx, &models.AssignmentQuestionnaire{}, "assignment_id", assignment.ID, questionnaireLinkIDs(bundle.AssignmentQuestionnaires), ErrInvalidQuestionnaireLink); err != nil {
			return err
		}

		if err := tx.Omit("Instructor", "Course", "CreatedAt").Save(assignment).Error; err != nil {
			return fmt.Errorf("failed to save assignment: %w", err)
		}

		if len(bundle.DropDeadlineTypes) > 0 {
			if err := tx.Where("parent_id = ? AND deadline_type_id IN ?", assignment.ID, bundle.DropDeadlineTypes).
				Delete(&models.DueDate{}).Error; err != nil {
				return fmt.Errorf("failed to drop due dates: %w", err)
			}
		}

		for i := range bundle.DueDates {
			dd := &bundle.DueDates[i]
			dd.ParentID = assignment.ID
			if dd.ID == 0 {
				if err := tx.Create(dd).Error; err != nil {
					return fmt.Errorf("failed to create due date: %w", err)
				}
				continue
			}
			res := tx.Model(&models.DueDate{}).
				Where("id = ? AND parent_id = ?", dd.ID, assignment.ID).
				Select("deadline_type_id", "due_at", "deadline_name", "description_url", "round", "threshold").
				Updates(dd)
			if res.Error != nil {
				return fmt.Errorf("failed to update due date %d: %w", dd.ID, res.Error)
			}
		}

		for i := range bundle.AssignmentQuestionnaires {
			aq := &bundle.AssignmentQuestionnaires[i]
			aq.AssignmentID = assignment.ID
			if aq.ID == 0 {
				if err := tx.Omit("Questionnaire").Create(aq).Error; err != nil {
					return fmt.Errorf("failed to attach questionnaire: %w", err)
				}
				continue
			}
			res := tx.Model(&models.AssignmentQuestionnaire{}).
				Where("id = ? AND assignment_id = ?", aq.ID, assignment.ID).
				Select("questionnaire_id", "user_id", "questionnaire_weight", "used_in_round", "notification_limit", "dropdown").
				Updates(aq)
			if res.Error != nil {
				return fmt.Errorf("failed to update questionnaire link %d: %w", aq.ID, res.Error)
			}
		}
		return nil
	})
}

// checkOwned fails with sentinel unless every id names a row of model whose ownerColumn is ownerID.
// Checked up front because MySQL reports zero affected rows for updates that change nothing.
func checkOwned(tx *gorm.DB, model interface{}, ownerColumn string, ownerID int, ids []int, sentinel error) error {
	if len(ids) == 0 {
		return nil
	}
	var owned int64
	if err := tx.Model(model).Where(ownerColumn+" = ? AND id IN ?", ownerID, ids).Count(&owned).Error; err != nil {
		return fmt.Errorf("failed to check row ownership: %w", err)
	}
	if owned != int64(len(ids)) {
		return sentinel
	}
	return nil
}

// dueDateIDs returns the distinct ids of already stored due dates.
func dueDateIDs(dueDates []models.DueDate) []int {
	seen := map[int]bool{}
	ids := make([]int, 0, len(dueDates))
	for _, dd := range dueDates {
		if dd.ID != 0 && !seen[dd.ID] {
			seen[dd.ID] = true
			ids = append(ids, dd.ID)
		}
	}
	return ids
}

func questionnaireLinkIDs(aqs []models.AssignmentQuestionnaire) []int {
	seen := map[int]bool{}
	ids := make([]int, 0, len(aqs))
	for _, aq := range aqs {
		if aq.ID != 0 && !seen[aq.ID] {
			seen[aq.ID] = true
			ids = append(ids, aq.ID)
		}
	}
	return ids
}

func (s *GormStore) SaveAssignment(ctx context.Context, assignment *models.Assignment) error {
	return s.db.WithContext(ctx).Omit("Instructor", "Course", "CreatedAt").Save(assignment).Error
}

func (s *GormStore) SetAssignmentCourse(ctx context.Context, assignmentID int, courseID *int) error {
	res := s.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", assignmentID).
		Update("course_id", courseID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *GormStore) DeleteAssignment(ctx context.Context, assignmentID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents := []struct {
			model interface{}
			cond  string
		}{
			{&models.DueDate{}, "parent_id = ? AND type = 'AssignmentDueDate'"},
			{&models.AssignmentQuestionnaire{}, "assignment_id = ?"},
			{&models.SignUpTopic{}, "assignment_id = ?"},
			{&models.TagPromptDeployment{}, "assignment_id = ?"},
			{&models.Participant{}, "parent_id = ? AND type = 'AssignmentParticipant'"},
			{&models.Team{}, "parent_id = ? AND type = 'AssignmentTeam'"},
		}

		// Responses hang off response maps, so they go first.
		if err := tx.Where("map_id IN (?)",
			tx.Model(&models.ResponseMap{}).Select("id").Where("reviewed_object_id = ?", assignmentID),
		).Delete(&models.Response{}).Error; err != nil {
			return fmt.Errorf("failed to delete responses: %w", err)
		}
		if err := tx.Where("reviewed_object_id = ?", assignmentID).Delete(&models.ResponseMap{}).Error; err != nil {
			return fmt.Errorf("failed to delete response maps: %w", err)
		}

		for _, dep := range dependents {
			if err := tx.Where(dep.cond, assignmentID).Delete(dep.model).Error; err != nil {
				return fmt.Errorf("failed to delete dependent rows: %w", err)
			}
		}

		res := tx.Where("id = ?", assignmentID).Delete(&models.Assignment{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete assignment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAssignmentNotFound
		}
		return nil
	})
}
