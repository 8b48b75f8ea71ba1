package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azsu-rae/asura-edt/internal/models"
)

func TestScheduleRepositoryReplaceDistributesProctorsRoundRobin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	at := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	plans := []models.ModulePlan{
		{
			ModuleID: 1,
			DateTime: at,
			Rooms: []models.RoomAssignment{
				{RoomID: 10, RoomType: models.RoomAmphi, Capacity: 60, FormationID: 4, Groups: "1,2"},
				{RoomID: 11, RoomType: models.RoomSalleTD, Capacity: 20, FormationID: 4, Groups: "3"},
			},
			ProctorIDs: []int64{100, 101, 102},
		},
	}

	insertExam := regexp.QuoteMeta("INSERT INTO examens (module_id, lieu_examen_id, date_heure, formation_id, groupes)")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM surveillances")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM examens")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(insertExam).
		WithArgs(int64(1), int64(10), at, int64(4), "1,2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(501))
	mock.ExpectQuery(insertExam).
		WithArgs(int64(1), int64(11), at, int64(4), "3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(502))
	insertProctoring := regexp.QuoteMeta("INSERT INTO surveillances (examen_id, prof_id) VALUES ($1, $2)")
	mock.ExpectExec(insertProctoring).WithArgs(int64(501), int64(100)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertProctoring).WithArgs(int64(502), int64(101)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertProctoring).WithArgs(int64(501), int64(102)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	exams, proctorings, err := repo.Replace(context.Background(), plans)
	require.NoError(t, err)
	assert.Equal(t, 2, exams)
	assert.Equal(t, 3, proctorings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	at := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	plans := []models.ModulePlan{
		{
			ModuleID:   1,
			DateTime:   at,
			Rooms:      []models.RoomAssignment{{RoomID: 10, RoomType: models.RoomAmphi, FormationID: 4, Groups: "1"}},
			ProctorIDs: []int64{100},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM surveillances")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM examens")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO examens")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, _, err := repo.Replace(context.Background(), plans)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert exam for module 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceSkipsProctorsWithoutRooms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	plans := []models.ModulePlan{
		{ModuleID: 9, DateTime: time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local), ProctorIDs: []int64{100}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM surveillances")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM examens")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	exams, proctorings, err := repo.Replace(context.Background(), plans)
	require.NoError(t, err)
	assert.Zero(t, exams)
	assert.Zero(t, proctorings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryStudentDayViolations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	day := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"etudiant_id", "exam_date", "exam_count"}).
		AddRow(42, day, 2)
	mock.ExpectQuery("SELECT e.id AS etudiant_id").
		WithArgs(5).
		WillReturnRows(rows)

	violations, err := repo.StudentDayViolations(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, int64(42), violations[0].StudentID)
	assert.Equal(t, 2, violations[0].ExamCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySessionSpread(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"min_sessions", "max_sessions"}).AddRow(2, 3)
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(rows)

	spread, err := repo.SessionSpread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, spread.Min)
	assert.Equal(t, 3, spread.Max)
	require.NoError(t, mock.ExpectationsWereMet())
}
