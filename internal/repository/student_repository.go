package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/chapter-participation-api/internal/models"
)

const (
	insertStudentQuery = `INSERT INTO students (name, grade_level) VALUES (?, ?) RETURNING id`
	insertEventQuery   = `INSERT INTO participation_events (student_id, name, date, notes, points, kind) VALUES (?, ?, ?, ?, ?, ?)`
)

// StudentRepository manages the roster: students and their participation events.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student with nested participation events, ordered by id.
// Both reads share one transaction so the result is a single snapshot.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	tx, err := r.db.BeginTxx(ctx, r.snapshotOptions())
	if err != nil {
		return nil, fmt.Errorf("begin roster snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var records []models.StudentRecord
	if err := tx.SelectContext(ctx, &records, `SELECT id, name, grade_level FROM students ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var events []models.EventRecord
	const eventsQuery = `SELECT id, student_id, name, date, notes, points, kind FROM participation_events ORDER BY student_id, id`
	if err := tx.SelectContext(ctx, &events, eventsQuery); err != nil {
		return nil, fmt.Errorf("list participation events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("end roster snapshot: %w", err)
	}

	byStudent := make(map[int64][]models.ParticipationEvent, len(records))
	for _, event := range events {
		byStudent[event.StudentID] = append(byStudent[event.StudentID], event.Event())
	}

	students := make([]models.Student, 0, len(records))
	for _, record := range records {
		participation := byStudent[record.ID]
		if participation == nil {
			participation = []models.ParticipationEvent{}
		}
		students = append(students, models.Student{
			ID:                  record.ID,
			Name:                record.Name,
			GradeLevel:          record.GradeLevel,
			ParticipationEvents: participation,
		})
	}
	return students, nil
}

// snapshotOptions returns the transaction options for a consistent read.
// PostgreSQL needs repeatable read for both statements to see one snapshot;
// a SQLite transaction already reads from one.
func (r *StudentRepository) snapshotOptions() *sql.TxOptions {
	if r.db.DriverName() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// Exists reports whether a student with the id is on the roster.
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT 1 FROM students WHERE id = ? LIMIT 1`), id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student: %w", err)
	}
	return true, nil
}

// Create inserts a student and all of its events in one transaction and sets
// the assigned id on the student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.createTx(ctx, tx, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student: %w", err)
	}
	return nil
}

// Import inserts students without events atomically; either every row is
// written or none is.
func (r *StudentRepository) Import(ctx context.Context, students []models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range students {
		if err := r.createTx(ctx, tx, &students[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (r *StudentRepository) createTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	var id int64
	if err := tx.QueryRowxContext(ctx, tx.Rebind(insertStudentQuery), student.Name, student.GradeLevel).Scan(&id); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	student.ID = id
	for _, event := range student.ParticipationEvents {
		if err := insertEventTx(ctx, tx, id, event); err != nil {
			return err
		}
	}
	return nil
}

// AddEvent records a participation event for an existing student. It returns
// sql.ErrNoRows when the student does not exist.
func (r *StudentRepository) AddEvent(ctx context.Context, studentID int64, event models.ParticipationEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM students WHERE id = ? LIMIT 1`), studentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := insertEventTx(ctx, tx, studentID, event); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit participation event: %w", err)
	}
	return nil
}

func insertEventTx(ctx context.Context, tx *sqlx.Tx, studentID int64, event models.ParticipationEvent) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(insertEventQuery), studentID, event.Name, event.Date, event.Notes, event.Points, event.Kind); err != nil {
		return fmt.Errorf("insert participation event: %w", err)
	}
	return nil
}

// TotalPoints sums the points of a student's events. It returns sql.ErrNoRows
// when the student does not exist.
func (r *StudentRepository) TotalPoints(ctx context.Context, studentID int64) (int, error) {
	exists, err := r.Exists(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, sql.ErrNoRows
	}
	var total int
	const query = `SELECT COALESCE(SUM(points), 0) FROM participation_events WHERE student_id = ?`
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), studentID); err != nil {
		return 0, fmt.Errorf("sum participation points: %w", err)
	}
	return total, nil
}

// Delete removes a student together with its events. It returns
// sql.ErrNoRows when the student does not exist.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM participation_events WHERE student_id = ?`), id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete participation events: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM students WHERE id = ?`), id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete student: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (r *StudentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
