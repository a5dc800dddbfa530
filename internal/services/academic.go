package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/askmate/apiserver/types"
)

// YearRepository defines persistence for academic years.
type YearRepository interface {
	List(ctx context.Context) ([]types.Year, error)
	Create(ctx context.Context, year types.Year) (types.Year, error)
	Delete(ctx context.Context, id int) error
}

// SemesterRepository defines persistence for semesters.
type SemesterRepository interface {
	List(ctx context.Context, yearID int) ([]types.Semester, error)
	Create(ctx context.Context, semester types.Semester) (types.Semester, error)
	Delete(ctx context.Context, id int) error
}

// ModuleRepository defines persistence for teaching modules.
type ModuleRepository interface {
	Get(ctx context.Context, id int) (types.Module, error)
	List(ctx context.Context, semesterID int) ([]types.Module, error)
	Create(ctx context.Context, module types.Module) (types.Module, error)
	Update(ctx context.Context, module types.Module) (types.Module, error)
	Delete(ctx context.Context, id int) error
}

// AcademicService manages the year -> semester -> module hierarchy.
// Mutations are admin-only; that is enforced at the routing layer.
type AcademicService struct {
	years     YearRepository
	semesters SemesterRepository
	modules   ModuleRepository
}

func NewAcademicService(years YearRepository, semesters SemesterRepository, modules ModuleRepository) *AcademicService {
	return &AcademicService{
		years:     years,
		semesters: semesters,
		modules:   modules,
	}
}

func (s *AcademicService) ListYears(ctx context.Context) ([]types.Year, error) {
	return s.years.List(ctx)
}

func (s *AcademicService) CreateYear(ctx context.Context, name string) (types.Year, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Year{}, fmt.Errorf("%w: year name is required", ErrValidation)
	}
	return s.years.Create(ctx, types.Year{Name: name})
}

// DeleteYear removes a year; semesters, modules and their resources
// cascade at the database level.
func (s *AcademicService) DeleteYear(ctx context.Context, id int) error {
	return s.years.Delete(ctx, id)
}

// ListSemesters returns semesters, optionally narrowed to a year.
func (s *AcademicService) ListSemesters(ctx context.Context, yearID int) ([]types.Semester, error) {
	return s.semesters.List(ctx, yearID)
}

func (s *AcademicService) CreateSemester(ctx context.Context, semester types.Semester) (types.Semester, error) {
	semester.Name = strings.TrimSpace(semester.Name)
	if semester.Name == "" {
		return types.Semester{}, fmt.Errorf("%w: semester name is required", ErrValidation)
	}
	if semester.YearID == 0 {
		return types.Semester{}, fmt.Errorf("%w: yearId is required", ErrValidation)
	}
	return s.semesters.Create(ctx, semester)
}

func (s *AcademicService) DeleteSemester(ctx context.Context, id int) error {
	return s.semesters.Delete(ctx, id)
}

func (s *AcademicService) GetModule(ctx context.Context, id int) (types.Module, error) {
	return s.modules.Get(ctx, id)
}

// ListModules returns modules, optionally narrowed to a semester.
func (s *AcademicService) ListModules(ctx context.Context, semesterID int) ([]types.Module, error) {
	return s.modules.List(ctx, semesterID)
}

func (s *AcademicService) CreateModule(ctx context.Context, module types.Module) (types.Module, error) {
	module.Name = strings.TrimSpace(module.Name)
	module.Code = strings.TrimSpace(module.Code)
	if module.Name == "" {
		return types.Module{}, fmt.Errorf("%w: module name is required", ErrValidation)
	}
	if module.Code == "" {
		return types.Module{}, fmt.Errorf("%w: module code is required", ErrValidation)
	}
	if module.SemesterID == 0 {
		return types.Module{}, fmt.Errorf("%w: semesterId is required", ErrValidation)
	}
	return s.modules.Create(ctx, module)
}

func (s *AcademicService) UpdateModule(ctx context.Context, module types.Module) (types.Module, error) {
	module.Name = strings.TrimSpace(module.Name)
	module.Code = strings.TrimSpace(module.Code)
	if module.Name == "" || module.Code == "" {
		return types.Module{}, fmt.Errorf("%w: module name and code are required", ErrValidation)
	}
	return s.modules.Update(ctx, module)
}

func (s *AcademicService) DeleteModule(ctx context.Context, id int) error {
	return s.modules.Delete(ctx, id)
}
