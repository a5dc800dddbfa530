package types

import "time"

// Year is the top level of the academic hierarchy, e.g. "Year 1".
type Year struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Semester belongs to a Year. The (Name, YearID) pair is unique.
type Semester struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	YearID    int       `json:"yearId" db:"year_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Module belongs to a Semester and is the attachment point for
// resources and questions. Code is unique across all modules.
type Module struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	SemesterID  int       `json:"semesterId" db:"semester_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
