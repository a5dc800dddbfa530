package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type fakeStudentRepo struct {
	students map[string]types.Student
	nextID   int
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: map[string]types.Student{}, nextID: 1}
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id int) (types.Student, error) {
	for _, student := range r.students {
		if student.ID == id {
			return student, nil
		}
	}
	return types.Student{}, store.ErrNotFound
}

func (r *fakeStudentRepo) GetByStudentID(_ context.Context, studentID string) (types.Student, error) {
	student, ok := r.students[studentID]
	if !ok {
		return types.Student{}, store.ErrNotFound
	}
	return student, nil
}

func (r *fakeStudentRepo) List(_ context.Context) ([]types.Student, error) {
	var out []types.Student
	for _, student := range r.students {
		out = append(out, student)
	}
	return out, nil
}

func (r *fakeStudentRepo) Create(_ context.Context, student types.Student) (types.Student, error) {
	if _, exists := r.students[student.StudentID]; exists {
		return types.Student{}, store.ErrDuplicate
	}
	student.ID = r.nextID
	r.nextID++
	r.students[student.StudentID] = student
	return student, nil
}

func (r *fakeStudentRepo) Update(_ context.Context, student types.Student) (types.Student, error) {
	r.students[student.StudentID] = student
	return student, nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, id int) error {
	for key, student := range r.students {
		if student.ID == id {
			delete(r.students, key)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeLecturerRepo struct {
	lecturers map[string]types.Lecturer
	nextID    int
}

func newFakeLecturerRepo() *fakeLecturerRepo {
	return &fakeLecturerRepo{lecturers: map[string]types.Lecturer{}, nextID: 1}
}

func (r *fakeLecturerRepo) GetByID(_ context.Context, id int) (types.Lecturer, error) {
	for _, lecturer := range r.lecturers {
		if lecturer.ID == id {
			return lecturer, nil
		}
	}
	return types.Lecturer{}, store.ErrNotFound
}

func (r *fakeLecturerRepo) GetByLecturerID(_ context.Context, lecturerID string) (types.Lecturer, error) {
	lecturer, ok := r.lecturers[lecturerID]
	if !ok {
		return types.Lecturer{}, store.ErrNotFound
	}
	return lecturer, nil
}

func (r *fakeLecturerRepo) List(_ context.Context) ([]types.Lecturer, error) {
	var out []types.Lecturer
	for _, lecturer := range r.lecturers {
		out = append(out, lecturer)
	}
	return out, nil
}

func (r *fakeLecturerRepo) Create(_ context.Context, lecturer types.Lecturer) (types.Lecturer, error) {
	if _, exists := r.lecturers[lecturer.LecturerID]; exists {
		return types.Lecturer{}, store.ErrDuplicate
	}
	lecturer.ID = r.nextID
	r.nextID++
	r.lecturers[lecturer.LecturerID] = lecturer
	return lecturer, nil
}

func (r *fakeLecturerRepo) Update(_ context.Context, lecturer types.Lecturer) (types.Lecturer, error) {
	r.lecturers[lecturer.LecturerID] = lecturer
	return lecturer, nil
}

func (r *fakeLecturerRepo) Delete(_ context.Context, id int) error {
	for key, lecturer := range r.lecturers {
		if lecturer.ID == id {
			delete(r.lecturers, key)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeHelperRepo struct {
	helpers map[string]types.Helper
	nextID  int
}

func newFakeHelperRepo() *fakeHelperRepo {
	return &fakeHelperRepo{helpers: map[string]types.Helper{}, nextID: 1}
}

func (r *fakeHelperRepo) GetByID(_ context.Context, id int) (types.Helper, error) {
	for _, helper := range r.helpers {
		if helper.ID == id {
			return helper, nil
		}
	}
	return types.Helper{}, store.ErrNotFound
}

func (r *fakeHelperRepo) GetByEmail(_ context.Context, email string) (types.Helper, error) {
	for _, helper := range r.helpers {
		if helper.Email == email {
			return helper, nil
		}
	}
	return types.Helper{}, store.ErrNotFound
}

func (r *fakeHelperRepo) GetByStudentID(_ context.Context, studentID string) (types.Helper, error) {
	helper, ok := r.helpers[studentID]
	if !ok {
		return types.Helper{}, store.ErrNotFound
	}
	return helper, nil
}

func (r *fakeHelperRepo) List(_ context.Context) ([]types.Helper, error) {
	var out []types.Helper
	for _, helper := range r.helpers {
		out = append(out, helper)
	}
	return out, nil
}

func (r *fakeHelperRepo) Create(_ context.Context, helper types.Helper) (types.Helper, error) {
	if _, exists := r.helpers[helper.StudentID]; exists {
		return types.Helper{}, store.ErrDuplicate
	}
	helper.ID = r.nextID
	r.nextID++
	r.helpers[helper.StudentID] = helper
	return helper, nil
}

func (r *fakeHelperRepo) Update(_ context.Context, helper types.Helper) (types.Helper, error) {
	r.helpers[helper.StudentID] = helper
	return helper, nil
}

func (r *fakeHelperRepo) SetApproval(_ context.Context, id int, approved bool) (types.Helper, error) {
	for key, helper := range r.helpers {
		if helper.ID == id {
			helper.AdminApproved = approved
			r.helpers[key] = helper
			return helper, nil
		}
	}
	return types.Helper{}, store.ErrNotFound
}

func (r *fakeHelperRepo) AddReputation(_ context.Context, studentID string, delta int) error {
	helper, ok := r.helpers[studentID]
	if !ok {
		return store.ErrNotFound
	}
	helper.Reputation += delta
	r.helpers[studentID] = helper
	return nil
}

func (r *fakeHelperRepo) Delete(_ context.Context, id int) error {
	for key, helper := range r.helpers {
		if helper.ID == id {
			delete(r.helpers, key)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeAdminRepo struct {
	admins map[string]types.Admin
	nextID int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: map[string]types.Admin{}, nextID: 1}
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id int) (types.Admin, error) {
	for _, admin := range r.admins {
		if admin.ID == id {
			return admin, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (r *fakeAdminRepo) GetByAdminID(_ context.Context, adminID string) (types.Admin, error) {
	admin, ok := r.admins[adminID]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func (r *fakeAdminRepo) Create(_ context.Context, admin types.Admin) (types.Admin, error) {
	if _, exists := r.admins[admin.AdminID]; exists {
		return types.Admin{}, store.ErrDuplicate
	}
	admin.ID = r.nextID
	r.nextID++
	r.admins[admin.AdminID] = admin
	return admin, nil
}

func (r *fakeAdminRepo) Update(_ context.Context, admin types.Admin) (types.Admin, error) {
	r.admins[admin.AdminID] = admin
	return admin, nil
}

func (r *fakeAdminRepo) Delete(_ context.Context, id int) error {
	for key, admin := range r.admins {
		if admin.ID == id {
			delete(r.admins, key)
			return nil
		}
	}
	return store.ErrNotFound
}

func newIdentityService() (*IdentityService, *fakeStudentRepo, *fakeHelperRepo) {
	students := newFakeStudentRepo()
	helpers := newFakeHelperRepo()
	service := NewIdentityService(students, newFakeLecturerRepo(), helpers, newFakeAdminRepo())
	return service, students, helpers
}

func TestRegisterStudent(t *testing.T) {
	service, students, _ := newIdentityService()
	ctx := context.Background()

	err := service.Register(ctx, RegisterInput{
		Role:       types.RoleStudent,
		ExternalID: "it23554689",
		Email:      "IT23554689@my.sliit.lk",
		Password:   "secret123",
		Year:       "Year 2",
		Semester:   "Semester 1",
	})
	if err != nil {
		t.Fatalf("register student: %v", err)
	}

	student, err := students.GetByStudentID(ctx, "IT23554689")
	if err != nil {
		t.Fatalf("student not stored: %v", err)
	}
	if student.Email != "it23554689@my.sliit.lk" {
		t.Errorf("email not normalized: %q", student.Email)
	}
	if student.PasswordHash == "secret123" {
		t.Error("password stored in plain text")
	}
}

func TestRegisterStudentRejectsBadID(t *testing.T) {
	service, _, _ := newIdentityService()

	err := service.Register(context.Background(), RegisterInput{
		Role:       types.RoleStudent,
		ExternalID: "XX12345678",
		Email:      "xx12345678@my.sliit.lk",
		Password:   "secret123",
		Year:       "Year 1",
		Semester:   "Semester 1",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterStudentRejectsForeignEmail(t *testing.T) {
	service, _, _ := newIdentityService()

	err := service.Register(context.Background(), RegisterInput{
		Role:       types.RoleStudent,
		ExternalID: "IT23554689",
		Email:      "it23554689@gmail.com",
		Password:   "secret123",
		Year:       "Year 1",
		Semester:   "Semester 1",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "@my.sliit.lk") {
		t.Errorf("error should name the expected domain: %v", err)
	}
}

func TestRegisterDuplicateStudent(t *testing.T) {
	service, _, _ := newIdentityService()
	ctx := context.Background()

	input := RegisterInput{
		Role:       types.RoleStudent,
		ExternalID: "IT23554689",
		Email:      "it23554689@my.sliit.lk",
		Password:   "secret123",
		Year:       "Year 1",
		Semester:   "Semester 1",
	}
	if err := service.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := service.Register(ctx, input); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on duplicate, got %v", err)
	}
}

func TestRegisterHelperStartsUnapproved(t *testing.T) {
	service, _, helpers := newIdentityService()
	ctx := context.Background()

	err := service.Register(ctx, RegisterInput{
		Role:           types.RoleHelper,
		ExternalID:     "IT21004455",
		Email:          "it21004455@my.sliit.lk",
		Password:       "secret123",
		Name:           "Past Student",
		GraduationYear: 2024,
		Skills:         []string{"Databases"},
	})
	if err != nil {
		t.Fatalf("register helper: %v", err)
	}

	helper, err := helpers.GetByStudentID(ctx, "IT21004455")
	if err != nil {
		t.Fatalf("helper not stored: %v", err)
	}
	if helper.AdminApproved {
		t.Error("helper must start unapproved")
	}
}

func TestRegisterHelperRequiresSkills(t *testing.T) {
	service, _, _ := newIdentityService()

	err := service.Register(context.Background(), RegisterInput{
		Role:           types.RoleHelper,
		ExternalID:     "IT21004455",
		Email:          "it21004455@my.sliit.lk",
		Password:       "secret123",
		Name:           "Past Student",
		GraduationYear: 2024,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	service, _, _ := newIdentityService()

	err := service.Register(context.Background(), RegisterInput{
		Role:       types.RoleAdmin,
		ExternalID: "AD00000001",
		Email:      "ad00000001@my.sliit.lk",
		Password:   "secret123",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("admin registration must be rejected, got %v", err)
	}
}

func TestLoginDistinguishesUnknownUserFromBadPassword(t *testing.T) {
	service, students, _ := newIdentityService()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := students.Create(ctx, types.Student{
		StudentID:    "IT23554689",
		Email:        "it23554689@my.sliit.lk",
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := service.Login(ctx, types.RoleStudent, "IT99999999", "secret123"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id: expected ErrNotFound, got %v", err)
	}
	if _, err := service.Login(ctx, types.RoleStudent, "IT23554689", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("bad password: expected ErrInvalidPassword, got %v", err)
	}

	principal, err := service.Login(ctx, types.RoleStudent, "it23554689", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if principal.ExternalID != "IT23554689" || principal.Role != types.RoleStudent {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestSetHelperApproval(t *testing.T) {
	service, _, helpers := newIdentityService()
	ctx := context.Background()

	created, err := helpers.Create(ctx, types.Helper{
		StudentID: "IT21004455",
		Email:     "it21004455@my.sliit.lk",
	})
	if err != nil {
		t.Fatal(err)
	}

	helper, err := service.SetHelperApproval(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("set approval: %v", err)
	}
	if !helper.AdminApproved {
		t.Error("approval flag not set")
	}
}

func TestUpdateProfileKeepsExternalID(t *testing.T) {
	service, students, _ := newIdentityService()
	ctx := context.Background()

	created, err := students.Create(ctx, types.Student{
		StudentID:     "IT23554689",
		Email:         "it23554689@my.sliit.lk",
		YearLabel:     "Year 1",
		SemesterLabel: "Semester 1",
	})
	if err != nil {
		t.Fatal(err)
	}

	principal := types.Principal{ID: created.ID, ExternalID: created.StudentID, Role: types.RoleStudent}
	year := "Year 2"
	profile, err := service.UpdateProfile(ctx, principal, ProfileUpdate{Year: &year})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.Student == nil {
		t.Fatal("expected student profile")
	}
	if profile.Student.YearLabel != "Year 2" {
		t.Errorf("year not updated: %q", profile.Student.YearLabel)
	}
	if profile.Student.StudentID != "IT23554689" {
		t.Errorf("student id must be immutable: %q", profile.Student.StudentID)
	}
}
