package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"assignment-management-api/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type stepKind int

const (
	kindQuery stepKind = iota
	kindExec
)

type queryStep struct {
	kind    stepKind
	pattern *regexp.Regexp
	args    []driver.Value
	delay   time.Duration
	columns []string
	rows    [][]driver.Value
	err     error
	result  driver.Result
}

type scriptedDB struct {
	mu    sync.Mutex
	steps []*queryStep
	txLog []string
}

func (db *scriptedDB) record(event string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.txLog = append(db.txLog, event)
}

func (db *scriptedDB) transactions() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.txLog...)
}

func (db *scriptedDB) next(kind stepKind, query string, args []driver.NamedValue) (*queryStep, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	step := db.steps[0]
	if step.kind != kind {
		return nil, fmt.Errorf("unexpected kind for query %s: got %v want %v", query, kind, step.kind)
	}
	if !step.pattern.MatchString(query) {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	if step.args == nil {
		db.steps = db.steps[1:]
		return step, nil
	}
	if len(step.args) != len(args) {
		return nil, fmt.Errorf("unexpected arg count for %s: got %d want %d", query, len(args), len(step.args))
	}
	for i := range args {
		if args[i].Value != step.args[i] {
			return nil, fmt.Errorf("unexpected arg %d for %s: got %v want %v", i, query, args[i].Value, step.args[i])
		}
	}
	db.steps = db.steps[1:]
	return step, nil
}

func (db *scriptedDB) verifyComplete() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) != 0 {
		return fmt.Errorf("unmet expectations: %d", len(db.steps))
	}
	return nil
}

type scriptedDriver struct {
	db *scriptedDB
}

func (d *scriptedDriver) Open(string) (driver.Conn, error) {
	return &scriptedConn{db: d.db}, nil
}

type scriptedConn struct {
	db *scriptedDB
}

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) Begin() (driver.Tx, error) {
	c.db.record("BEGIN")
	return scriptedTx{db: c.db}, nil
}

type scriptedTx struct {
	db *scriptedDB
}

func (tx scriptedTx) Commit() error {
	tx.db.record("COMMIT")
	return nil
}

func (tx scriptedTx) Rollback() error {
	tx.db.record("ROLLBACK")
	return nil
}

func (c *scriptedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	step, err := c.db.next(kindQuery, query, args)
	if err != nil {
		return nil, err
	}
	if step.delay > 0 {
		select {
		case <-time.After(step.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if step.err != nil {
		if errors.Is(step.err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, step.err
	}
	return &scriptedRows{columns: step.columns, rows: step.rows}, nil
}

func (c *scriptedConn) Query(query string, args []driver.Value) (driver.Rows, error) {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return c.QueryContext(context.Background(), query, named)
}

func (c *scriptedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	step, err := c.db.next(kindExec, query, args)
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	if step.result != nil {
		return step.result, nil
	}
	return scriptedResult{}, nil
}

func (c *scriptedConn) Exec(query string, args []driver.Value) (driver.Result, error) {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return c.ExecContext(context.Background(), query, named)
}

type scriptedResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r scriptedResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }

func (r scriptedResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *scriptedRows) Columns() []string { return r.columns }

func (r *scriptedRows) Close() error { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.idx]
	for i := range dest {
		dest[i] = nil
	}
	for i := range row {
		dest[i] = row[i]
	}
	r.idx++
	return nil
}

func newScriptedGormDB(t *testing.T, steps []*queryStep) (*gorm.DB, *scriptedDB, func()) {
	t.Helper()
	state := &scriptedDB{steps: steps}
	driverName := fmt.Sprintf("scripted_%d", time.Now().UnixNano())
	sql.Register(driverName, &scriptedDriver{db: state})

	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}

	cleanup := func() {
		_ = sqlDB.Close()
	}
	return gormDB, state, cleanup
}

func TestGormStoreGetAssignmentMapsMissingRow(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `assignments` WHERE id = \\?"),
			columns: []string{"id", "name"},
			rows:    [][]driver.Value{},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewGormStore(gormDB).GetAssignment(context.Background(), 42)
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound to accept %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGormStoreAssignmentNameTakenScopesToCourseAndExcludesSelf(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `assignments` WHERE name = \\? AND course_id IS NULL AND id <> \\?"),
			args:    []driver.Value{"Program 1", int64(7)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `assignments` WHERE name = \\? AND course_id = \\?"),
			args:    []driver.Value{"Program 1", int64(3)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	store := NewGormStore(gormDB)
	taken, err := store.AssignmentNameTaken(context.Background(), "Program 1", nil, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken {
		t.Fatalf("expected name to be taken outside a course")
	}

	courseID := 3
	taken, err = store.AssignmentNameTaken(context.Background(), "Program 1", &courseID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken {
		t.Fatalf("expected name to be free in course %d", courseID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGormStoreCountResponsesJoinsResponseMaps(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile(`SELECT count\(\*\) FROM responses AS r JOIN response_maps AS rm ON rm.id = r.map_id WHERE rm.reviewed_object_id = \?`),
			args:    []driver.Value{int64(9)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(3)}},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	total, err := NewGormStore(gormDB).CountResponses(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 responses, got %d", total)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func execStep(pattern string, lastInsertID, affected int64) *queryStep {
	return &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile(pattern),
		result:  scriptedResult{lastInsertID: lastInsertID, rowsAffected: affected},
	}
}

func countStep(pattern string, args []driver.Value, n int64) *queryStep {
	return &queryStep{
		pattern: regexp.MustCompile(pattern),
		args:    args,
		columns: []string{"count(*)"},
		rows:    [][]driver.Value{{n}},
	}
}

func expectTransactions(t *testing.T, state *scriptedDB, want ...string) {
	t.Helper()
	got := state.transactions()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected transaction events %v, got %v", want, got)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGormStoreCreateAssignmentInsertsChildrenWithNewID(t *testing.T) {
	steps := []*queryStep{
		execStep("INSERT INTO `assignments`", 5, 1),
		execStep("INSERT INTO `due_dates`", 11, 1),
		execStep("INSERT INTO `assignment_questionnaires`", 21, 1),
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	due := time.Date(2030, 1, 20, 4, 0, 0, 0, time.UTC)
	questionnaireID := 3
	bundle := &AssignmentBundle{
		Assignment: models.Assignment{Name: "Program 1", InstructorID: 1, MaxTeamSize: 1, NumReviewRounds: 1},
		DueDates:   []models.DueDate{{ID: 99, DeadlineTypeID: models.DeadlineTypeSubmission, DueAt: &due, Round: 1, Threshold: 1, Type: "AssignmentDueDate"}},
		AssignmentQuestionnaires: []models.AssignmentQuestionnaire{
			{QuestionnaireID: &questionnaireID, UserID: 1, QuestionnaireWeight: 100, NotificationLimit: 15},
		},
	}
	if err := NewGormStore(gormDB).CreateAssignment(context.Background(), bundle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Assignment.ID != 5 {
		t.Fatalf("expected generated id 5, got %d", bundle.Assignment.ID)
	}
	if bundle.DueDates[0].ID != 11 || bundle.DueDates[0].ParentID != 5 {
		t.Fatalf("due date not linked to the new assignment: %+v", bundle.DueDates[0])
	}
	if bundle.AssignmentQuestionnaires[0].AssignmentID != 5 {
		t.Fatalf("questionnaire link not linked to the new assignment: %+v", bundle.AssignmentQuestionnaires[0])
	}
	expectTransactions(t, state, "BEGIN", "COMMIT")
}

func TestGormStoreUpdateAssignmentRejectsForeignDueDate(t *testing.T) {
	steps := []*queryStep{
		countStep("SELECT count\\(\\*\\) FROM `due_dates` WHERE parent_id = \\? AND id IN \\(\\?\\)",
			[]driver.Value{int64(2), int64(1)}, 0),
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	due := time.Date(2030, 1, 20, 4, 0, 0, 0, time.UTC)
	bundle := &AssignmentBundle{
		Assignment: models.Assignment{ID: 2, Name: "Program 2", InstructorID: 1},
		DueDates:   []models.DueDate{{ID: 1, DeadlineTypeID: models.DeadlineTypeSubmission, DueAt: &due}},
	}
	err := NewGormStore(gormDB).UpdateAssignment(context.Background(), bundle)
	if !errors.Is(err, ErrInvalidDueDate) || !IsFormRejection(err) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	expectTransactions(t, state, "BEGIN", "ROLLBACK")
}

func TestGormStoreUpdateAssignmentRejectsForeignQuestionnaireLink(t *testing.T) {
	steps := []*queryStep{
		countStep("SELECT count\\(\\*\\) FROM `assignment_questionnaires` WHERE assignment_id = \\? AND id IN \\(\\?\\)",
			[]driver.Value{int64(2), int64(7)}, 0),
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	questionnaireID := 3
	bundle := &AssignmentBundle{
		Assignment:               models.Assignment{ID: 2, Name: "Program 2", InstructorID: 1},
		AssignmentQuestionnaires: []models.AssignmentQuestionnaire{{ID: 7, QuestionnaireID: &questionnaireID}},
	}
	err := NewGormStore(gormDB).UpdateAssignment(context.Background(), bundle)
	if !errors.Is(err, ErrInvalidQuestionnaireLink) || !IsFormRejection(err) {
		t.Fatalf("expected ErrInvalidQuestionnaireLink, got %v", err)
	}
	expectTransactions(t, state, "BEGIN", "ROLLBACK")
}

func TestGormStoreUpdateAssignmentWritesOwnedRows(t *testing.T) {
	steps := []*queryStep{
		countStep("SELECT count\\(\\*\\) FROM `due_dates` WHERE parent_id = \\? AND id IN \\(\\?\\)",
			[]driver.Value{int64(2), int64(4)}, 1),
		countStep("SELECT count\\(\\*\\) FROM `assignment_questionnaires` WHERE assignment_id = \\? AND id IN \\(\\?\\)",
			[]driver.Value{int64(2), int64(7)}, 1),
		execStep("UPDATE `assignments` SET", 0, 1),
		execStep("DELETE FROM `due_dates` WHERE parent_id = \\? AND deadline_type_id IN \\(\\?\\)", 0, 1),
		execStep("UPDATE `due_dates` SET", 0, 1),
		execStep("INSERT INTO `due_dates`", 12, 1),
		execStep("UPDATE `assignment_questionnaires` SET", 0, 1),
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	due := time.Date(2030, 1, 20, 4, 0, 0, 0, time.UTC)
	questionnaireID := 3
	bundle := &AssignmentBundle{
		Assignment: models.Assignment{ID: 2, Name: "Program 2", InstructorID: 1, MaxTeamSize: 1, NumReviewRounds: 1},
		DueDates: []models.DueDate{
			{ID: 4, DeadlineTypeID: models.DeadlineTypeSubmission, DueAt: &due, Round: 1, Threshold: 1, Type: "AssignmentDueDate"},
			{DeadlineTypeID: models.DeadlineTypeReview, DueAt: &due, Round: 1, Threshold: 1, Type: "AssignmentDueDate"},
		},
		AssignmentQuestionnaires: []models.AssignmentQuestionnaire{
			{ID: 7, QuestionnaireID: &questionnaireID, UserID: 1, QuestionnaireWeight: 100, NotificationLimit: 15},
		},
		DropDeadlineTypes: []models.DeadlineType{models.DeadlineTypeMetareview},
	}
	if err := NewGormStore(gormDB).UpdateAssignment(context.Background(), bundle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.DueDates[1].ID != 12 || bundle.DueDates[1].ParentID != 2 {
		t.Fatalf("new due date not created for the assignment: %+v", bundle.DueDates[1])
	}
	expectTransactions(t, state, "BEGIN", "COMMIT")
}

func deleteSteps() []*queryStep {
	return []*queryStep{
		execStep("DELETE FROM `responses` WHERE map_id IN \\(SELECT `id` FROM `response_maps` WHERE reviewed_object_id = \\?\\)", 0, 2),
		execStep("DELETE FROM `response_maps` WHERE reviewed_object_id = \\?", 0, 1),
		execStep("DELETE FROM `due_dates` WHERE parent_id = \\?", 0, 3),
		execStep("DELETE FROM `assignment_questionnaires` WHERE assignment_id = \\?", 0, 2),
		execStep("DELETE FROM `sign_up_topics` WHERE assignment_id = \\?", 0, 1),
		execStep("DELETE FROM `tag_prompt_deployments` WHERE assignment_id = \\?", 0, 0),
		execStep("DELETE FROM `participants` WHERE parent_id = \\?", 0, 4),
		execStep("DELETE FROM `teams` WHERE parent_id = \\?", 0, 1),
	}
}

func TestGormStoreDeleteAssignmentRemovesDependentsInOneTransaction(t *testing.T) {
	steps := append(deleteSteps(), execStep("DELETE FROM `assignments` WHERE id = \\?", 0, 1))
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	if err := NewGormStore(gormDB).DeleteAssignment(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectTransactions(t, state, "BEGIN", "COMMIT")
}

func TestGormStoreDeleteAssignmentRollsBackOnFailure(t *testing.T) {
	steps := deleteSteps()[:3]
	steps[2].err = errors.New("lock wait timeout exceeded")
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	err := NewGormStore(gormDB).DeleteAssignment(context.Background(), 9)
	if err == nil || !strings.Contains(err.Error(), "lock wait timeout exceeded") {
		t.Fatalf("expected the driver error, got %v", err)
	}
	expectTransactions(t, state, "BEGIN", "ROLLBACK")
}

func TestGormStoreDeleteAssignmentMissingRow(t *testing.T) {
	steps := append(deleteSteps(), execStep("DELETE FROM `assignments` WHERE id = \\?", 0, 0))
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	if err := NewGormStore(gormDB).DeleteAssignment(context.Background(), 9); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
	expectTransactions(t, state, "BEGIN", "ROLLBACK")
}
