package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/azsu-rae/asura-edt/internal/models"
)

// ReferenceRepository reads the pre-existing reference data the optimizer
// schedules against. It never writes.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListFormations returns every formation with the department that owns it.
func (r *ReferenceRepository) ListFormations(ctx context.Context) ([]models.Formation, error) {
	const query = `SELECT f.id, f.specialite_id, f.cycle, f.semestre, s.dept_id
        FROM formations f
        JOIN specialites s ON s.id = f.specialite_id
        ORDER BY f.id`
	var formations []models.Formation
	if err := r.db.SelectContext(ctx, &formations, query); err != nil {
		return nil, fmt.Errorf("list formations: %w", err)
	}
	return formations, nil
}

// ListModules returns every module in id order.
func (r *ReferenceRepository) ListModules(ctx context.Context) ([]models.Module, error) {
	const query = `SELECT id, nom, formation_id FROM modules ORDER BY id`
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// ListStudents returns every student in id order.
func (r *ReferenceRepository) ListStudents(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, nom, prenom, formation_id, groupe FROM etudiants ORDER BY id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListProfessors returns every professor in id order.
func (r *ReferenceRepository) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	const query = `SELECT id, nom, dept_id FROM professeurs ORDER BY id`
	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query); err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}
	return professors, nil
}

// ListRooms returns every exam room, largest first. Equal capacities order
// by id so two runs see the same pool order.
func (r *ReferenceRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, nom, capacite, type FROM lieu_examens ORDER BY capacite DESC, id`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
