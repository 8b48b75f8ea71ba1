package models

// Department owns specialties and professors.
type Department struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"nom" json:"name"`
}

// Specialty is a study program of a department, split per cycle.
type Specialty struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"nom" json:"name"`
	Cycle        string `db:"cycle" json:"cycle"`
	DepartmentID int64  `db:"dept_id" json:"department_id"`
}

// Cycle values carried by specialties and formations.
const (
	CycleLicence = "Licence"
	CycleMaster  = "Master"
)
