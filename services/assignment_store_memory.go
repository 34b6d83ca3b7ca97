package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"assignment-management-api/models"
)

// MemoryStore is an in-process Store used for local runs (DB_DRIVER=memory) and tests.
type MemoryStore struct {
	mu sync.RWMutex

	nextID int

	users          map[int]models.User
	courses        map[int]models.Course
	taMappings     []models.TaMapping
	questionnaires map[int]models.Questionnaire
	assignments    map[int]models.Assignment
	dueDates       map[int]models.DueDate
	aqs            map[int]models.AssignmentQuestionnaire
	topics         map[int]models.SignUpTopic
	tagPrompts     map[int]models.TagPromptDeployment
	teams          map[int]models.Team
	participants   map[int]models.Participant
	responseMaps   map[int]models.ResponseMap
	responses      map[int]models.Response
	suggestions    map[int]models.Suggestion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          map[int]models.User{},
		courses:        map[int]models.Course{},
		questionnaires: map[int]models.Questionnaire{},
		assignments:    map[int]models.Assignment{},
		dueDates:       map[int]models.DueDate{},
		aqs:            map[int]models.AssignmentQuestionnaire{},
		topics:         map[int]models.SignUpTopic{},
		tagPrompts:     map[int]models.TagPromptDeployment{},
		teams:          map[int]models.Team{},
		participants:   map[int]models.Participant{},
		responseMaps:   map[int]models.ResponseMap{},
		responses:      map[int]models.Response{},
		suggestions:    map[int]models.Suggestion{},
	}
}

func (s *MemoryStore) id() int {
	s.nextID++
	return s.nextID
}

// ---------- seeding ----------

func (s *MemoryStore) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	u.Role = models.Role{ID: u.RoleID, Name: roleName(u.RoleID)}
	s.users[u.ID] = u
	return u
}

func (s *MemoryStore) AddCourse(c models.Course) models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.courses[c.ID] = c
	return c
}

func (s *MemoryStore) AddTaMapping(taID, courseID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taMappings = append(s.taMappings, models.TaMapping{ID: s.id(), TaID: taID, CourseID: courseID})
}

func (s *MemoryStore) AddQuestionnaire(q models.Questionnaire) models.Questionnaire {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.id()
	s.questionnaires[q.ID] = q
	return q
}

func (s *MemoryStore) AddTeam(t models.Team) models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	if t.Type == "" {
		t.Type = "AssignmentTeam"
	}
	s.teams[t.ID] = t
	return t
}

func (s *MemoryStore) AddParticipant(p models.Participant) models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Type == "" {
		p.Type = "AssignmentParticipant"
	}
	s.participants[p.ID] = p
	return p
}

// AddResponse records one review response against the assignment.
func (s *MemoryStore) AddResponse(assignmentID int) models.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := models.ResponseMap{ID: s.id(), ReviewedObjectID: assignmentID, Type: "ReviewResponseMap"}
	s.responseMaps[m.ID] = m
	r := models.Response{ID: s.id(), MapID: m.ID, IsSubmitted: true, CreatedAt: time.Now()}
	s.responses[r.ID] = r
	return r
}

func (s *MemoryStore) AddSuggestion(sg models.Suggestion) models.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg.ID = s.id()
	s.suggestions[sg.ID] = sg
	return sg
}

func (s *MemoryStore) AddTagPromptDeployment(d models.TagPromptDeployment) models.TagPromptDeployment {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id()
	s.tagPrompts[d.ID] = d
	return d
}

func roleName(roleID int) string {
	switch roleID {
	case models.RoleStudent:
		return "Student"
	case models.RoleTeachingAssistant:
		return "Teaching Assistant"
	case models.RoleInstructor:
		return "Instructor"
	case models.RoleAdministrator:
		return "Administrator"
	case models.RoleSuperAdministrator:
		return "Super-Administrator"
	}
	return ""
}

// ---------- Store ----------

func (s *MemoryStore) GetAssignment(_ context.Context, id int) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	if u, ok := s.users[a.InstructorID]; ok {
		a.Instructor = &u
	}
	if a.CourseID != nil {
		if c, ok := s.courses[*a.CourseID]; ok {
			a.Course = &c
		}
	}
	return &a, nil
}

func (s *MemoryStore) AssignmentNameTaken(_ context.Context, name string, courseID *int, excludeID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assignments {
		if a.ID == excludeID || a.Name != name {
			continue
		}
		if sameCourse(a.CourseID, courseID) {
			return true, nil
		}
	}
	return false, nil
}

func sameCourse(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *MemoryStore) ListDueDates(_ context.Context, assignmentID int) ([]models.DueDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.DueDate, 0)
	for _, dd := range s.dueDates {
		if dd.ParentID == assignmentID {
			rows = append(rows, dd)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].DueAt, rows[j].DueAt
		switch {
		case a == nil && b == nil:
			return rows[i].ID < rows[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return rows[i].ID < rows[j].ID
		}
		return a.Before(*b)
	})
	return rows, nil
}

func (s *MemoryStore) ListAssignmentQuestionnaires(_ context.Context, assignmentID int) ([]models.AssignmentQuestionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.AssignmentQuestionnaire, 0)
	for _, aq := range s.aqs {
		if aq.AssignmentID != assignmentID {
			continue
		}
		aq.Questionnaire = nil
		if aq.QuestionnaireID != nil {
			if q, ok := s.questionnaires[*aq.QuestionnaireID]; ok {
				aq.Questionnaire = &q
			}
		}
		rows = append(rows, aq)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *MemoryStore) ListTopics(_ context.Context, assignmentID int) ([]models.SignUpTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.SignUpTopic, 0)
	for _, t := range s.topics {
		if t.AssignmentID == assignmentID {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *MemoryStore) ListTagPromptDeployments(_ context.Context, assignmentID int) ([]models.TagPromptDeployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.TagPromptDeployment, 0)
	for _, d := range s.tagPrompts {
		if d.AssignmentID == assignmentID {
			rows = append(rows, d)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *MemoryStore) ListTeams(_ context.Context, assignmentID int) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.Team, 0)
	for _, t := range s.teams {
		if t.ParentID == assignmentID && t.Type == "AssignmentTeam" {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (s *MemoryStore) CountParticipants(_ context.Context, assignmentID int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, p := range s.participants {
		if p.ParentID == assignmentID && p.Type == "AssignmentParticipant" {
			total++
		}
	}
	return total, nil
}

func (s *MemoryStore) CountResponses(_ context.Context, assignmentID int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, r := range s.responses {
		if m, ok := s.responseMaps[r.MapID]; ok && m.ReviewedObjectID == assignmentID {
			total++
		}
	}
	return total, nil
}

func (s *MemoryStore) ListParticipantEmails(_ context.Context, assignmentID int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	emails := make([]string, 0)
	for _, p := range s.participants {
		if p.ParentID != assignmentID || p.Type != "AssignmentParticipant" {
			continue
		}
		u, ok := s.users[p.UserID]
		if !ok || u.Email == "" || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		emails = append(emails, u.Email)
	}
	sort.Strings(emails)
	return emails, nil
}

func (s *MemoryStore) ListSuggestions(_ context.Context, assignmentID int) ([]models.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.Suggestion, 0)
	for _, sg := range s.suggestions {
		if sg.AssignmentID == assignmentID {
			rows = append(rows, sg)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) FindUserByLogin(_ context.Context, login string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	login = strings.TrimSpace(login)
	for _, u := range s.users {
		if u.DeletedAt == nil && (u.Name == login || u.Email == login) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) GetCourse(_ context.Context, id int) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return &c, nil
}

func (s *MemoryStore) IsTAForCourse(_ context.Context, userID, courseID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.taMappings {
		if m.TaID == userID && m.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListCoursesForUser(_ context.Context, user models.User) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taCourses := map[int]bool{}
	for _, m := range s.taMappings {
		if m.TaID == user.ID {
			taCourses[m.CourseID] = true
		}
	}
	rows := make([]models.Course, 0)
	for _, c := range s.courses {
		if user.HasAdminPrivileges() || c.InstructorID == user.ID || taCourses[c.ID] {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (s *MemoryStore) CreateAssignment(_ context.Context, bundle *AssignmentBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	a := &bundle.Assignment
	a.ID = s.id()
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Instructor, stored.Course = nil, nil
	s.assignments[a.ID] = stored

	for i := range bundle.DueDates {
		dd := &bundle.DueDates[i]
		dd.ID = s.id()
		dd.ParentID = a.ID
		s.dueDates[dd.ID] = *dd
	}
	for i := range bundle.AssignmentQuestionnaires {
		aq := &bundle.AssignmentQuestionnaires[i]
		aq.ID = s.id()
		aq.AssignmentID = a.ID
		row := *aq
		row.Questionnaire = nil
		s.aqs[aq.ID] = row
	}
	for i := range bundle.Topics {
		t := &bundle.Topics[i]
		t.ID = s.id()
		t.AssignmentID = a.ID
		s.topics[t.ID] = *t
	}
	return nil
}

func (s *MemoryStore) UpdateAssignment(_ context.Context, bundle *AssignmentBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &bundle.Assignment
	current, ok := s.assignments[a.ID]
	if !ok {
		return ErrAssignmentNotFound
	}
	for _, dd := range bundle.DueDates {
		if dd.ID != 0 {
			if existing, ok := s.dueDates[dd.ID]; !ok || existing.ParentID != a.ID {
				return ErrInvalidDueDate
			}
		}
	}
	for _, aq := range bundle.AssignmentQuestionnaires {
		if aq.ID != 0 {
			if existing, ok := s.aqs[aq.ID]; !ok || existing.AssignmentID != a.ID {
				return ErrInvalidQuestionnaireLink
			}
		}
	}

	a.CreatedAt = current.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	stored := *a
	stored.Instructor, stored.Course = nil, nil
	s.assignments[a.ID] = stored

	for _, t := range bundle.DropDeadlineTypes {
		for id, dd := range s.dueDates {
			if dd.ParentID == a.ID && dd.DeadlineTypeID == t {
				delete(s.dueDates, id)
			}
		}
	}

	for i := range bundle.DueDates {
		dd := &bundle.DueDates[i]
		dd.ParentID = a.ID
		if dd.ID == 0 {
			dd.ID = s.id()
		}
		s.dueDates[dd.ID] = *dd
	}
	for i := range bundle.AssignmentQuestionnaires {
		aq := &bundle.AssignmentQuestionnaires[i]
		aq.AssignmentID = a.ID
		if aq.ID == 0 {
			aq.ID = s.id()
		}
		row := *aq
		row.Questionnaire = nil
		s.aqs[aq.ID] = row
	}
	return nil
}

func (s *MemoryStore) SaveAssignment(_ context.Context, assignment *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.assignments[assignment.ID]
	if !ok {
		return ErrAssignmentNotFound
	}
	assignment.CreatedAt = current.CreatedAt
	assignment.UpdatedAt = time.Now().UTC()
	stored := *assignment
	stored.Instructor, stored.Course = nil, nil
	s.assignments[assignment.ID] = stored
	return nil
}

func (s *MemoryStore) SetAssignmentCourse(_ context.Context, assignmentID int, courseID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[assignmentID]
	if !ok {
		return ErrAssignmentNotFound
	}
	a.CourseID = courseID
	s.assignments[assignmentID] = a
	return nil
}

func (s *MemoryStore) DeleteAssignment(_ context.Context, assignmentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[assignmentID]; !ok {
		return ErrAssignmentNotFound
	}

	for id, r := range s.responses {
		if m, ok := s.responseMaps[r.MapID]; ok && m.ReviewedObjectID == assignmentID {
			delete(s.responses, id)
		}
	}
	for id, m := range s.responseMaps {
		if m.ReviewedObjectID == assignmentID {
			delete(s.responseMaps, id)
		}
	}
	for id, dd := range s.dueDates {
		if dd.ParentID == assignmentID {
			delete(s.dueDates, id)
		}
	}
	for id, aq := range s.aqs {
		if aq.AssignmentID == assignmentID {
			delete(s.aqs, id)
		}
	}
	for id, t := range s.topics {
		if t.AssignmentID == assignmentID {
			delete(s.topics, id)
		}
	}
	for id, d := range s.tagPrompts {
		if d.AssignmentID == assignmentID {
			delete(s.tagPrompts, id)
		}
	}
	for id, p := range s.participants {
		if p.ParentID == assignmentID {
			delete(s.participants, id)
		}
	}
	for id, t := range s.teams {
		if t.ParentID == assignmentID {
			delete(s.teams, id)
		}
	}
	delete(s.assignments, assignmentID)
	return nil
}
