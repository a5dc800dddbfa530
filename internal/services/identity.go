package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

var (
	studentIDPattern  = regexp.MustCompile(`^IT\d{8}$`)
	lecturerIDPattern = regexp.MustCompile(`^LC\d{8}$`)
)

const universityEmailDomain = "@my.sliit.lk"

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	GetByID(ctx context.Context, id int) (types.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (types.Student, error)
	List(ctx context.Context) ([]types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Update(ctx context.Context, student types.Student) (types.Student, error)
	Delete(ctx context.Context, id int) error
}

// LecturerRepository defines persistence operations for lecturers.
type LecturerRepository interface {
	GetByID(ctx context.Context, id int) (types.Lecturer, error)
	GetByLecturerID(ctx context.Context, lecturerID string) (types.Lecturer, error)
	List(ctx context.Context) ([]types.Lecturer, error)
	Create(ctx context.Context, lecturer types.Lecturer) (types.Lecturer, error)
	Update(ctx context.Context, lecturer types.Lecturer) (types.Lecturer, error)
	Delete(ctx context.Context, id int) error
}

// HelperRepository defines persistence operations for helpers.
type HelperRepository interface {
	GetByID(ctx context.Context, id int) (types.Helper, error)
	GetByEmail(ctx context.Context, email string) (types.Helper, error)
	GetByStudentID(ctx context.Context, studentID string) (types.Helper, error)
	List(ctx context.Context) ([]types.Helper, error)
	Create(ctx context.Context, helper types.Helper) (types.Helper, error)
	Update(ctx context.Context, helper types.Helper) (types.Helper, error)
	SetApproval(ctx context.Context, id int, approved bool) (types.Helper, error)
	AddReputation(ctx context.Context, studentID string, delta int) error
	Delete(ctx context.Context, id int) error
}

// AdminRepository defines persistence operations for admins.
type AdminRepository interface {
	GetByID(ctx context.Context, id int) (types.Admin, error)
	GetByAdminID(ctx context.Context, adminID string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	Update(ctx context.Context, admin types.Admin) (types.Admin, error)
	Delete(ctx context.Context, id int) error
}

// IdentityService encapsulates account registration, login, profile
// self-service, and admin user management across the four principal kinds.
type IdentityService struct {
	students  StudentRepository
	lecturers LecturerRepository
	helpers   HelperRepository
	admins    AdminRepository
}

func NewIdentityService(
	students StudentRepository,
	lecturers LecturerRepository,
	helpers HelperRepository,
	admins AdminRepository,
) *IdentityService {
	return &IdentityService{
		students:  students,
		lecturers: lecturers,
		helpers:   helpers,
		admins:    admins,
	}
}

// RegisterInput carries the union of fields accepted at registration.
// Role decides which subset is required.
type RegisterInput struct {
	Role           types.Role
	ExternalID     string
	Email          string
	Password       string
	Year           string
	Semester       string
	Name           string
	GraduationYear int
	Skills         []string
	ExpertiseLevel string
}

// Register creates an account for the given role. Admins cannot be
// registered through this path.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) error {
	input.ExternalID = strings.ToUpper(strings.TrimSpace(input.ExternalID))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.ExternalID == "" || input.Email == "" || input.Password == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	switch input.Role {
	case types.RoleStudent:
		return s.registerStudent(ctx, input, string(hashed))
	case types.RoleLecturer:
		return s.registerLecturer(ctx, input, string(hashed))
	case types.RoleHelper:
		return s.registerHelper(ctx, input, string(hashed))
	default:
		return fmt.Errorf("%w: invalid role selected", ErrValidation)
	}
}

func (s *IdentityService) registerStudent(ctx context.Context, input RegisterInput, hash string) error {
	if input.Year == "" || input.Semester == "" {
		return fmt.Errorf("%w: year and semester are required for students", ErrValidation)
	}
	if !studentIDPattern.MatchString(input.ExternalID) {
		return fmt.Errorf("%w: invalid student ID format, example: IT23554689", ErrValidation)
	}
	if err := checkUniversityEmail(input.ExternalID, input.Email); err != nil {
		return err
	}

	_, err := s.students.Create(ctx, types.Student{
		StudentID:     input.ExternalID,
		Email:         input.Email,
		PasswordHash:  hash,
		YearLabel:     input.Year,
		SemesterLabel: input.Semester,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: student already registered with this ID or email", ErrValidation)
	}
	return err
}

func (s *IdentityService) registerLecturer(ctx context.Context, input RegisterInput, hash string) error {
	if !lecturerIDPattern.MatchString(input.ExternalID) {
		return fmt.Errorf("%w: invalid lecturer ID format, example: LC12345678", ErrValidation)
	}
	if err := checkUniversityEmail(input.ExternalID, input.Email); err != nil {
		return err
	}

	_, err := s.lecturers.Create(ctx, types.Lecturer{
		LecturerID:   input.ExternalID,
		Email:        input.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: lecturer already registered with this ID or email", ErrValidation)
	}
	return err
}

func (s *IdentityService) registerHelper(ctx context.Context, input RegisterInput, hash string) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required for helpers", ErrValidation)
	}
	if input.GraduationYear == 0 {
		return fmt.Errorf("%w: graduation year is required for helpers", ErrValidation)
	}
	if len(input.Skills) == 0 {
		return fmt.Errorf("%w: at least one skill is required for helpers", ErrValidation)
	}

	// Helpers always start unapproved; only an admin can flip the gate.
	_, err := s.helpers.Create(ctx, types.Helper{
		Name:           input.Name,
		StudentID:      input.ExternalID,
		Email:          input.Email,
		PasswordHash:   hash,
		GraduationYear: input.GraduationYear,
		Skills:         input.Skills,
		ExpertiseLevel: input.ExpertiseLevel,
		AdminApproved:  false,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: helper already registered with this email", ErrValidation)
	}
	return err
}

func checkUniversityEmail(externalID, email string) error {
	expected := strings.ToLower(externalID) + universityEmailDomain
	if email != expected {
		return fmt.Errorf("%w: email must be %s", ErrValidation, expected)
	}
	return nil
}

// Login verifies credentials and returns the authenticated principal.
// Returns store.ErrNotFound for an unknown id, ErrInvalidPassword for a
// bad password, and ErrValidation for an unrecognized role.
func (s *IdentityService) Login(ctx context.Context, role types.Role, externalID, password string) (types.Principal, error) {
	externalID = strings.ToUpper(strings.TrimSpace(externalID))
	if externalID == "" || password == "" {
		return types.Principal{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}

	var (
		principal types.Principal
		hash      string
	)

	switch role {
	case types.RoleStudent:
		student, err := s.students.GetByStudentID(ctx, externalID)
		if err != nil {
			return types.Principal{}, err
		}
		principal = types.Principal{ID: student.ID, ExternalID: student.StudentID, Role: role, Email: student.Email}
		hash = student.PasswordHash
	case types.RoleLecturer:
		lecturer, err := s.lecturers.GetByLecturerID(ctx, externalID)
		if err != nil {
			return types.Principal{}, err
		}
		principal = types.Principal{ID: lecturer.ID, ExternalID: lecturer.LecturerID, Role: role, Email: lecturer.Email}
		hash = lecturer.PasswordHash
	case types.RoleHelper:
		helper, err := s.helpers.GetByStudentID(ctx, externalID)
		if err != nil {
			return types.Principal{}, err
		}
		principal = types.Principal{ID: helper.ID, ExternalID: helper.StudentID, Role: role, Email: helper.Email}
		hash = helper.PasswordHash
	case types.RoleAdmin:
		admin, err := s.admins.GetByAdminID(ctx, externalID)
		if err != nil {
			return types.Principal{}, err
		}
		principal = types.Principal{ID: admin.ID, ExternalID: admin.AdminID, Role: role, Email: admin.Email}
		hash = admin.PasswordHash
	default:
		return types.Principal{}, fmt.Errorf("%w: invalid role", ErrValidation)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return types.Principal{}, ErrInvalidPassword
	}
	return principal, nil
}

// Directory is the admin view over every account collection, passwords
// excluded by the types' json tags.
type Directory struct {
	Students  []types.Student  `json:"students"`
	Helpers   []types.Helper   `json:"helpers"`
	Lecturers []types.Lecturer `json:"lecturers"`
}

// ListUsers returns every student, helper, and lecturer account.
func (s *IdentityService) ListUsers(ctx context.Context) (Directory, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return Directory{}, err
	}
	helpers, err := s.helpers.List(ctx)
	if err != nil {
		return Directory{}, err
	}
	lecturers, err := s.lecturers.List(ctx)
	if err != nil {
		return Directory{}, err
	}
	return Directory{Students: students, Helpers: helpers, Lecturers: lecturers}, nil
}

// SetHelperApproval flips a helper's admin approval gate.
func (s *IdentityService) SetHelperApproval(ctx context.Context, helperID int, approved bool) (types.Helper, error) {
	return s.helpers.SetApproval(ctx, helperID, approved)
}

// DeleteUser removes an account of the given role by internal id.
func (s *IdentityService) DeleteUser(ctx context.Context, role types.Role, id int) error {
	switch role {
	case types.RoleStudent:
		return s.students.Delete(ctx, id)
	case types.RoleHelper:
		return s.helpers.Delete(ctx, id)
	case types.RoleLecturer:
		return s.lecturers.Delete(ctx, id)
	default:
		return fmt.Errorf("%w: invalid role", ErrValidation)
	}
}

// Profile is the role-shaped view of the caller's own account.
type Profile struct {
	Role     types.Role      `json:"role"`
	Student  *types.Student  `json:"student,omitempty"`
	Lecturer *types.Lecturer `json:"lecturer,omitempty"`
	Helper   *types.Helper   `json:"helper,omitempty"`
	Admin    *types.Admin    `json:"admin,omitempty"`
}

// GetProfile loads the caller's own account record.
func (s *IdentityService) GetProfile(ctx context.Context, principal types.Principal) (Profile, error) {
	profile := Profile{Role: principal.Role}
	switch principal.Role {
	case types.RoleStudent:
		student, err := s.students.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		profile.Student = &student
	case types.RoleLecturer:
		lecturer, err := s.lecturers.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		profile.Lecturer = &lecturer
	case types.RoleHelper:
		helper, err := s.helpers.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		profile.Helper = &helper
	case types.RoleAdmin:
		admin, err := s.admins.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		profile.Admin = &admin
	default:
		return Profile{}, fmt.Errorf("%w: invalid role", ErrValidation)
	}
	return profile, nil
}

// ProfileUpdate carries the self-service mutable fields. External ids
// are immutable; nil pointers leave a field unchanged.
type ProfileUpdate struct {
	Email                  *string
	Password               *string
	Year                   *string
	Semester               *string
	Name                   *string
	Skills                 []string
	ExpertiseLevel         *string
	AvailableForUrgentHelp *bool
}

// UpdateProfile applies a partial update to the caller's own account.
func (s *IdentityService) UpdateProfile(ctx context.Context, principal types.Principal, update ProfileUpdate) (Profile, error) {
	var hash string
	if update.Password != nil && *update.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return Profile{}, err
		}
		hash = string(hashed)
	}

	switch principal.Role {
	case types.RoleStudent:
		student, err := s.students.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		if update.Email != nil {
			student.Email = strings.ToLower(*update.Email)
		}
		if update.Year != nil {
			student.YearLabel = *update.Year
		}
		if update.Semester != nil {
			student.SemesterLabel = *update.Semester
		}
		if hash != "" {
			student.PasswordHash = hash
		}
		student, err = s.students.Update(ctx, student)
		if err != nil {
			return Profile{}, err
		}
		return Profile{Role: principal.Role, Student: &student}, nil
	case types.RoleLecturer:
		lecturer, err := s.lecturers.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		if update.Email != nil {
			lecturer.Email = strings.ToLower(*update.Email)
		}
		if hash != "" {
			lecturer.PasswordHash = hash
		}
		lecturer, err = s.lecturers.Update(ctx, lecturer)
		if err != nil {
			return Profile{}, err
		}
		return Profile{Role: principal.Role, Lecturer: &lecturer}, nil
	case types.RoleHelper:
		helper, err := s.helpers.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		if update.Email != nil {
			helper.Email = strings.ToLower(*update.Email)
		}
		if update.Name != nil {
			helper.Name = *update.Name
		}
		if update.Skills != nil {
			helper.Skills = update.Skills
		}
		if update.ExpertiseLevel != nil {
			helper.ExpertiseLevel = *update.ExpertiseLevel
		}
		if update.AvailableForUrgentHelp != nil {
			helper.AvailableForUrgentHelp = *update.AvailableForUrgentHelp
		}
		if hash != "" {
			helper.PasswordHash = hash
		}
		helper, err = s.helpers.Update(ctx, helper)
		if err != nil {
			return Profile{}, err
		}
		return Profile{Role: principal.Role, Helper: &helper}, nil
	case types.RoleAdmin:
		admin, err := s.admins.GetByID(ctx, principal.ID)
		if err != nil {
			return Profile{}, err
		}
		if update.Email != nil {
			admin.Email = strings.ToLower(*update.Email)
		}
		if hash != "" {
			admin.PasswordHash = hash
		}
		admin, err = s.admins.Update(ctx, admin)
		if err != nil {
			return Profile{}, err
		}
		return Profile{Role: principal.Role, Admin: &admin}, nil
	default:
		return Profile{}, fmt.Errorf("%w: invalid role", ErrValidation)
	}
}

// DeleteAccount removes the caller's own account.
func (s *IdentityService) DeleteAccount(ctx context.Context, principal types.Principal) error {
	switch principal.Role {
	case types.RoleStudent:
		return s.students.Delete(ctx, principal.ID)
	case types.RoleLecturer:
		return s.lecturers.Delete(ctx, principal.ID)
	case types.RoleHelper:
		return s.helpers.Delete(ctx, principal.ID)
	case types.RoleAdmin:
		return s.admins.Delete(ctx, principal.ID)
	default:
		return fmt.Errorf("%w: invalid role", ErrValidation)
	}
}
