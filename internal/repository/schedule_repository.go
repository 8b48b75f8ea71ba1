package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/azsu-rae/asura-edt/internal/models"
)

// ScheduleRepository owns the examens and surveillances tables. A run
// replaces the previous schedule wholesale inside one transaction.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Replace deletes the previous schedule and inserts the new one. On any
// failure the transaction rolls back and the previous schedule survives.
// Proctors of a module are spread round-robin over its exam rows so every
// room receives at least one when enough proctors were found.
func (r *ScheduleRepository) Replace(ctx context.Context, plans []models.ModulePlan) (int, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin schedule transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM surveillances`); err != nil {
		return 0, 0, fmt.Errorf("clear surveillances: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM examens`); err != nil {
		return 0, 0, fmt.Errorf("clear examens: %w", err)
	}

	const insertExam = `INSERT INTO examens (module_id, lieu_examen_id, date_heure, formation_id, groupes)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	const insertProctoring = `INSERT INTO surveillances (examen_id, prof_id) VALUES ($1, $2)`

	examCount := 0
	proctoringCount := 0

	for _, plan := range plans {
		examIDs := make([]int64, 0, len(plan.Rooms))
		for _, room := range plan.Rooms {
			var examID int64
			if err = tx.QueryRowxContext(ctx, insertExam,
				plan.ModuleID, room.RoomID, plan.DateTime, room.FormationID, room.Groups,
			).Scan(&examID); err != nil {
				return 0, 0, fmt.Errorf("insert exam for module %d: %w", plan.ModuleID, err)
			}
			examIDs = append(examIDs, examID)
			examCount++
		}

		if len(examIDs) == 0 {
			continue
		}
		for i, profID := range plan.ProctorIDs {
			examID := examIDs[i%len(examIDs)]
			if _, err = tx.ExecContext(ctx, insertProctoring, examID, profID); err != nil {
				return 0, 0, fmt.Errorf("insert proctoring for module %d: %w", plan.ModuleID, err)
			}
			proctoringCount++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit schedule transaction: %w", err)
	}
	return examCount, proctoringCount, nil
}

// StudentDayViolations re-checks the written schedule: students with more
// than one exam on a single day. Enrollment follows formation membership.
func (r *ScheduleRepository) StudentDayViolations(ctx context.Context, limit int) ([]models.StudentDayViolation, error) {
	const query = `SELECT e.id AS etudiant_id, DATE(ex.date_heure) AS exam_date,
               COUNT(DISTINCT ex.module_id) AS exam_count
        FROM etudiants e
        JOIN modules m ON e.formation_id = m.formation_id
        JOIN examens ex ON m.id = ex.module_id
        GROUP BY e.id, DATE(ex.date_heure)
        HAVING COUNT(DISTINCT ex.module_id) > 1
        LIMIT $1`
	var violations []models.StudentDayViolation
	if err := r.db.SelectContext(ctx, &violations, query, limit); err != nil {
		return nil, fmt.Errorf("check student day violations: %w", err)
	}
	return violations, nil
}

// ProfessorDayViolations re-checks the written schedule: professors with
// more than maxPerDay proctorings on a single day.
func (r *ScheduleRepository) ProfessorDayViolations(ctx context.Context, maxPerDay, limit int) ([]models.ProfessorDayViolation, error) {
	const query = `SELECT s.prof_id, DATE(ex.date_heure) AS exam_date, COUNT(*) AS exam_count
        FROM surveillances s
        JOIN examens ex ON s.examen_id = ex.id
        GROUP BY s.prof_id, DATE(ex.date_heure)
        HAVING COUNT(*) > $1
        LIMIT $2`
	var violations []models.ProfessorDayViolation
	if err := r.db.SelectContext(ctx, &violations, query, maxPerDay, limit); err != nil {
		return nil, fmt.Errorf("check professor day violations: %w", err)
	}
	return violations, nil
}

// SessionSpread returns the min and max proctoring sessions across
// professors that received at least one.
func (r *ScheduleRepository) SessionSpread(ctx context.Context) (*models.SessionDistribution, error) {
	const query = `SELECT COALESCE(MIN(c), 0) AS min_sessions, COALESCE(MAX(c), 0) AS max_sessions
        FROM (SELECT COUNT(*) AS c FROM surveillances GROUP BY prof_id) t`
	var spread models.SessionDistribution
	if err := r.db.GetContext(ctx, &spread, query); err != nil {
		return nil, fmt.Errorf("session spread: %w", err)
	}
	return &spread, nil
}
