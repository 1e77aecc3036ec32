package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chapter-participation-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryListNestsEvents(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, grade_level FROM students ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "grade_level"}).
			AddRow(int64(1), "Ada", int64(10)).
			AddRow(int64(2), "Grace", int64(11)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, name, date, notes, points, kind FROM participation_events ORDER BY student_id, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "name", "date", "notes", "points", "kind"}).
			AddRow(int64(7), int64(1), "Relay", int64(1700000000), nil, int64(5), int64(1)).
			AddRow(int64(8), int64(1), "Bake sale", int64(1700086400), "cookies", int64(3), int64(0)))
	mock.ExpectCommit()

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)

	require.Len(t, students[0].ParticipationEvents, 2)
	first := students[0].ParticipationEvents[0]
	assert.Equal(t, "Relay", first.Name)
	assert.Nil(t, first.Notes)
	assert.Equal(t, models.EventKindSporting, first.Kind)
	second := students[0].ParticipationEvents[1]
	require.NotNil(t, second.Notes)
	assert.Equal(t, "cookies", *second.Notes)
	assert.Equal(t, models.EventKindNonSporting, second.Kind)

	assert.NotNil(t, students[1].ParticipationEvents)
	assert.Empty(t, students[1].ParticipationEvents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListRejectsUnknownKindCode(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, grade_level FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "grade_level"}).AddRow(int64(1), "Ada", int64(10)))
	mock.ExpectQuery("SELECT id, student_id, name, date, notes, points, kind FROM participation_events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "name", "date", "notes", "points", "kind"}).
			AddRow(int64(7), int64(1), "Relay", int64(1), nil, int64(5), int64(9)))
	mock.ExpectRollback()

	_, err := repo.List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListReadsOneSnapshot(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, grade_level FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "grade_level"}).AddRow(int64(1), "Ada", int64(10)))
	mock.ExpectQuery("SELECT id, student_id, name, date, notes, points, kind FROM participation_events").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list participation events")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateInsertsEventsInTransaction(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	notes := "anchor leg"
	student := &models.Student{
		Name:       "Ada",
		GradeLevel: 10,
		ParticipationEvents: []models.ParticipationEvent{
			{Name: "Relay", Date: 1700000000, Notes: &notes, Points: 5, Kind: models.EventKindSporting},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertStudentQuery)).
		WithArgs("Ada", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta(insertEventQuery)).
		WithArgs(int64(42), "Relay", int64(1700000000), "anchor leg", int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, int64(42), student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateRollsBackOnEventFailure(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertStudentQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta(insertEventQuery)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Student{
		Name:                "Ada",
		GradeLevel:          10,
		ParticipationEvents: []models.ParticipationEvent{{Name: "Relay", Date: 1, Points: 1, Kind: models.EventKindSporting}},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryImport(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertStudentQuery)).
		WithArgs("Ada", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(insertStudentQuery)).
		WithArgs("Grace", int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	students := []models.Student{{Name: "Ada", GradeLevel: 10}, {Name: "Grace", GradeLevel: 12}}
	require.NoError(t, repo.Import(context.Background(), students))
	assert.Equal(t, int64(2), students[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAddEventUnknownStudent(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = ? LIMIT 1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	err := repo.AddEvent(context.Background(), 9, models.ParticipationEvent{Name: "Relay", Points: 1})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryTotalPoints(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(points), 0) FROM participation_events WHERE student_id = ?")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(8)))

	total, err := repo.TotalPoints(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissingStudent(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM participation_events WHERE student_id = ?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
