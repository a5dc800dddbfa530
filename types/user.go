package types

import "time"

// Role identifies the kind of principal acting on the system.
type Role string

// Recognized principal roles.
const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleHelper   Role = "helper"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the recognized set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleHelper, RoleAdmin:
		return true
	}
	return false
}

// Privileged reports whether the role may moderate resources and
// bypass ownership checks.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleLecturer
}

// Principal is the authenticated actor decoded from a bearer token.
// It is injected into the request context by the auth middleware.
type Principal struct {
	// ID is the internal surrogate id within the role's collection.
	ID int `json:"id"`

	// ExternalID is the human-meaningful identifier used for login,
	// e.g. "IT23554689" for a student.
	ExternalID string `json:"userId"`

	// Role is the principal's role.
	Role Role `json:"role"`

	// Email is the principal's email address.
	Email string `json:"email"`
}

// Student represents a student account.
type Student struct {
	// ID is the internal surrogate id.
	ID int `json:"id" db:"id"`

	// StudentID is the unique external id in IT######## format.
	StudentID string `json:"studentId" db:"student_id"`

	// Email is the student's university email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// YearLabel is the free-text academic year label, e.g. "Year 2".
	YearLabel string `json:"year" db:"year_label"`

	// SemesterLabel is the free-text semester label, e.g. "Semester 1".
	SemesterLabel string `json:"semester" db:"semester_label"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Lecturer represents a lecturer account.
type Lecturer struct {
	// ID is the internal surrogate id.
	ID int `json:"id" db:"id"`

	// LecturerID is the unique external id in LC######## format.
	LecturerID string `json:"lecturerId" db:"lecturer_id"`

	// Email is the lecturer's university email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the password.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ExpertiseLevel values accepted for helpers.
const (
	ExpertiseBeginner     = "Beginner"
	ExpertiseIntermediate = "Intermediate"
	ExpertiseExpert       = "Expert"
)

// Helper represents a graduated-student helper account. Helpers
// self-register but cannot answer questions until an admin approves them.
type Helper struct {
	// ID is the internal surrogate id.
	ID int `json:"id" db:"id"`

	// Name is the helper's display name.
	Name string `json:"name" db:"name"`

	// StudentID is the helper's former student id. Not unique: a helper
	// record is separate from any student record with the same id.
	StudentID string `json:"studentID" db:"student_id"`

	// Email is the helper's email address, unique among helpers.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the password.
	PasswordHash string `json:"-" db:"password_hash"`

	// GraduationYear is the year the helper graduated.
	GraduationYear int `json:"graduationYear" db:"graduation_year"`

	// Skills lists the helper's self-declared skills.
	Skills []string `json:"skills" db:"skills"`

	// ExpertiseLevel is one of Beginner, Intermediate, Expert.
	ExpertiseLevel string `json:"expertiseLevel" db:"expertise_level"`

	// PreferredModules lists module codes the helper prefers to help with.
	PreferredModules []string `json:"preferredModules" db:"preferred_modules"`

	// AdminApproved gates the helper's ability to participate. It is
	// always false at registration and only an admin may set it.
	AdminApproved bool `json:"adminApproved" db:"admin_approved"`

	// AvailableForUrgentHelp marks the helper as reachable for urgent
	// questions.
	AvailableForUrgentHelp bool `json:"availableForUrgentHelp" db:"available_for_urgent_help"`

	// Reputation is an integer score accumulated from accepted answers.
	Reputation int `json:"reputation" db:"reputation"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Admin represents an administrator account. Admins are provisioned
// from the CLI, never through the registration endpoint.
type Admin struct {
	// ID is the internal surrogate id.
	ID int `json:"id" db:"id"`

	// AdminID is the unique external id.
	AdminID string `json:"adminId" db:"admin_id"`

	// Email is the admin's email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the password.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
