package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/azsu-rae/asura-edt/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReferenceRepositoryListFormations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "specialite_id", "cycle", "semestre", "dept_id"}).
		AddRow(1, 10, models.CycleLicence, 3, 7).
		AddRow(2, 11, models.CycleMaster, 1, 8)
	mock.ExpectQuery("SELECT f.id, f.specialite_id, f.cycle, f.semestre, s.dept_id").
		WillReturnRows(rows)

	formations, err := repo.ListFormations(context.Background())
	require.NoError(t, err)
	require.Len(t, formations, 2)
	require.Equal(t, int64(7), formations[0].DepartmentID)
	require.Equal(t, models.CycleMaster, formations[1].Cycle)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListModules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nom", "formation_id"}).
		AddRow(1, "Analyse 1", 4).
		AddRow(2, "Algebre 1", 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nom, formation_id FROM modules ORDER BY id")).
		WillReturnRows(rows)

	modules, err := repo.ListModules(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 2)
	require.Equal(t, int64(4), modules[1].FormationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListRoomsKeepsCapacityOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nom", "capacite", "type"}).
		AddRow(3, "Amphi A", 60, "Amphi").
		AddRow(1, "Salle 101", 20, "Salle_TD").
		AddRow(2, "Salle 102", 20, "Salle_TD")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nom, capacite, type FROM lieu_examens ORDER BY capacite DESC, id")).
		WillReturnRows(rows)

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	require.Equal(t, models.RoomAmphi, rooms[0].Type)
	require.Equal(t, int64(1), rooms[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListStudentsError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	mock.ExpectQuery("SELECT id, nom, prenom, formation_id, groupe FROM etudiants").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ListStudents(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "list students")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListProfessors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nom", "dept_id"}).
		AddRow(1, "Benali", 7).
		AddRow(2, "Cherif", 8)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nom, dept_id FROM professeurs ORDER BY id")).
		WillReturnRows(rows)

	professors, err := repo.ListProfessors(context.Background())
	require.NoError(t, err)
	require.Len(t, professors, 2)
	require.Equal(t, int64(8), professors[1].DepartmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}
