package models

// Student belongs to one formation and one group within it. Enrollment is
// derived: a student sits the exam of every module of their formation.
type Student struct {
	ID          int64  `db:"id" json:"id"`
	LastName    string `db:"nom" json:"last_name"`
	FirstName   string `db:"prenom" json:"first_name"`
	FormationID int64  `db:"formation_id" json:"formation_id"`
	Group       int    `db:"groupe" json:"group"`
}

// Professor proctors exams, preferably for their own department.
type Professor struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"nom" json:"name"`
	DepartmentID int64  `db:"dept_id" json:"department_id"`
}
