package models

import "time"

// Exam is one room of a scheduled module: a module spanning several rooms
// produces one exam row per room, all sharing the same timestamp.
type Exam struct {
	ID          int64     `db:"id" json:"id"`
	ModuleID    int64     `db:"module_id" json:"module_id"`
	RoomID      int64     `db:"lieu_examen_id" json:"room_id"`
	DateTime    time.Time `db:"date_heure" json:"date_time"`
	FormationID int64     `db:"formation_id" json:"formation_id"`
	Groups      string    `db:"groupes" json:"groups"`
}

// Proctoring assigns a professor to one exam room.
type Proctoring struct {
	ExamID      int64 `db:"examen_id" json:"exam_id"`
	ProfessorID int64 `db:"prof_id" json:"professor_id"`
}

// RoomAssignment is one packed room of a module before persistence: which
// room, which formation it seats and the comma-joined ascending group
// numbers sharing the room.
type RoomAssignment struct {
	RoomID      int64
	RoomType    RoomType
	Capacity    int
	FormationID int64
	Groups      string
}

// ModulePlan is the complete placement of one module: its timestamp, its
// rooms and the proctors to spread round-robin across those rooms.
type ModulePlan struct {
	ModuleID   int64
	DateTime   time.Time
	Rooms      []RoomAssignment
	ProctorIDs []int64
}

// StudentDayViolation is a post-write verification row: a student with more
// than one exam on a single day.
type StudentDayViolation struct {
	StudentID int64     `db:"etudiant_id"`
	Day       time.Time `db:"exam_date"`
	ExamCount int       `db:"exam_count"`
}

// ProfessorDayViolation is a post-write verification row: a professor with
// more than the allowed proctorings on a single day.
type ProfessorDayViolation struct {
	ProfessorID int64     `db:"prof_id"`
	Day         time.Time `db:"exam_date"`
	ExamCount   int       `db:"exam_count"`
}

// SessionDistribution summarises per-professor proctoring counts.
type SessionDistribution struct {
	Min int `db:"min_sessions"`
	Max int `db:"max_sessions"`
}
