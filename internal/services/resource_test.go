package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
)

type fakeResourceRepo struct {
	resources map[int]types.Resource
	nextID    int
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: map[int]types.Resource{}, nextID: 1}
}

func (r *fakeResourceRepo) Get(_ context.Context, id int) (types.Resource, error) {
	resource, ok := r.resources[id]
	if !ok {
		return types.Resource{}, store.ErrNotFound
	}
	return resource, nil
}

func (r *fakeResourceRepo) List(_ context.Context, filter store.ResourceFilter) ([]types.Resource, error) {
	var out []types.Resource
	for _, resource := range r.resources {
		if filter.ModuleID != 0 && resource.ModuleID != filter.ModuleID {
			continue
		}
		if filter.UploadedBy != "" && resource.UploadedBy != filter.UploadedBy {
			continue
		}
		if filter.Status != "" && resource.Status != filter.Status {
			continue
		}
		out = append(out, resource)
	}
	return out, nil
}

func (r *fakeResourceRepo) Create(_ context.Context, resource types.Resource) (types.Resource, error) {
	resource.ID = r.nextID
	r.nextID++
	resource.CreatedAt = time.Now()
	resource.UpdatedAt = resource.CreatedAt
	r.resources[resource.ID] = resource
	return resource, nil
}

func (r *fakeResourceRepo) Update(_ context.Context, resource types.Resource) (types.Resource, error) {
	if _, ok := r.resources[resource.ID]; !ok {
		return types.Resource{}, store.ErrNotFound
	}
	resource.UpdatedAt = time.Now()
	r.resources[resource.ID] = resource
	return resource, nil
}

func (r *fakeResourceRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.resources[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.resources, id)
	return nil
}

func (r *fakeResourceRepo) IncrementDownloads(_ context.Context, id int) error {
	resource, ok := r.resources[id]
	if !ok {
		return store.ErrNotFound
	}
	resource.DownloadCount++
	r.resources[id] = resource
	return nil
}

type fakeEventRepo struct {
	events []types.ModerationEvent
}

func (r *fakeEventRepo) Create(_ context.Context, event types.ModerationEvent) (types.ModerationEvent, error) {
	event.ID = len(r.events) + 1
	event.CreatedAt = time.Now()
	r.events = append(r.events, event)
	return event, nil
}

func (r *fakeEventRepo) ListByResource(_ context.Context, resourceID int) ([]types.ModerationEvent, error) {
	var out []types.ModerationEvent
	for _, event := range r.events {
		if event.ResourceID == resourceID {
			out = append(out, event)
		}
	}
	return out, nil
}

type fakeModuleGetter struct {
	modules map[int]types.Module
}

func (g *fakeModuleGetter) Get(_ context.Context, id int) (types.Module, error) {
	module, ok := g.modules[id]
	if !ok {
		return types.Module{}, store.ErrNotFound
	}
	return module, nil
}

type fakeObjectStorage struct {
	objects map[string][]byte
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (s *fakeObjectStorage) EnsureBucket(_ context.Context) error { return nil }

func (s *fakeObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStorage) Bucket() string { return "test-bucket" }

func newResourceService() (*ResourceService, *fakeResourceRepo, *fakeEventRepo, *fakeObjectStorage) {
	repo := newFakeResourceRepo()
	events := &fakeEventRepo{}
	modules := &fakeModuleGetter{modules: map[int]types.Module{1: {ID: 1, Name: "Databases", Code: "SE2030"}}}
	objects := newFakeObjectStorage()
	service := NewResourceService(repo, events, modules, objects, nil, "resource-moderation")
	return service, repo, events, objects
}

var (
	studentPrincipal  = types.Principal{ID: 1, ExternalID: "IT23554689", Role: types.RoleStudent, Email: "it23554689@my.sliit.lk"}
	lecturerPrincipal = types.Principal{ID: 2, ExternalID: "LC12345678", Role: types.RoleLecturer, Email: "lc12345678@my.sliit.lk"}
	adminPrincipal    = types.Principal{ID: 3, ExternalID: "AD00000001", Role: types.RoleAdmin, Email: "admin@my.sliit.lk"}
)

func linkInput(title string) CreateResourceInput {
	return CreateResourceInput{
		Title:        title,
		ResourceType: types.ResourceLink,
		URL:          "https://example.com/notes",
		ModuleID:     1,
	}
}

func TestCreateResourceInitialStatus(t *testing.T) {
	tests := []struct {
		name      string
		principal types.Principal
		want      types.ResourceStatus
	}{
		{"student starts pending", studentPrincipal, types.StatusPending},
		{"lecturer starts approved", lecturerPrincipal, types.StatusApproved},
		{"admin starts approved", adminPrincipal, types.StatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, _, _ := newResourceService()
			resource, err := service.Create(context.Background(), tt.principal, linkInput("Lecture notes"))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if resource.Status != tt.want {
				t.Errorf("status = %s, want %s", resource.Status, tt.want)
			}
			if resource.UploadedBy != tt.principal.ExternalID {
				t.Errorf("uploadedBy = %s, want %s", resource.UploadedBy, tt.principal.ExternalID)
			}
		})
	}
}

func TestCreateResourceRejectsUnknownModule(t *testing.T) {
	service, _, _, _ := newResourceService()
	input := linkInput("Lecture notes")
	input.ModuleID = 42

	_, err := service.Create(context.Background(), studentPrincipal, input)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateResourceWithFileRoundTrip(t *testing.T) {
	service, _, _, objects := newResourceService()
	ctx := context.Background()

	resource, err := service.Create(ctx, studentPrincipal, CreateResourceInput{
		Title:        "Past paper",
		ResourceType: types.ResourcePDF,
		ModuleID:     1,
		File: &FileUpload{
			Filename:    "paper.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4 content"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wantURL := fmt.Sprintf("/api/resources/%d/file", resource.ID)
	if resource.URL != wantURL {
		t.Errorf("url = %q, want %q", resource.URL, wantURL)
	}
	if len(objects.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(objects.objects))
	}

	got, reader, err := service.Open(ctx, resource.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4 content" {
		t.Errorf("unexpected file content: %q", data)
	}
	if got.ID != resource.ID {
		t.Errorf("open returned resource %d, want %d", got.ID, resource.ID)
	}
}

func TestListDefaultsToApproved(t *testing.T) {
	service, _, _, _ := newResourceService()
	ctx := context.Background()

	if _, err := service.Create(ctx, studentPrincipal, linkInput("Pending notes")); err != nil {
		t.Fatal(err)
	}
	if _, err := service.Create(ctx, lecturerPrincipal, linkInput("Approved notes")); err != nil {
		t.Fatal(err)
	}

	visible, err := service.List(ctx, ListInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 || visible[0].Status != types.StatusApproved {
		t.Errorf("default listing must show approved only, got %+v", visible)
	}

	all, err := service.List(ctx, ListInput{Status: "all"})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("status=all must lift the filter, got %d resources", len(all))
	}

	if _, err := service.List(ctx, ListInput{Status: "bogus"}); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid status filter: expected validation error, got %v", err)
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	service, _, _, _ := newResourceService()
	ctx := context.Background()

	resource, err := service.Create(ctx, studentPrincipal, linkInput("Notes"))
	if err != nil {
		t.Fatal(err)
	}

	other := types.Principal{ID: 9, ExternalID: "IT20000001", Role: types.RoleStudent}
	title := "Hijacked"
	if _, err := service.Update(ctx, other, resource.ID, UpdateResourceInput{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestStatusTransitionNeedsPrivilege(t *testing.T) {
	service, _, events, _ := newResourceService()
	ctx := context.Background()

	resource, err := service.Create(ctx, studentPrincipal, linkInput("Notes"))
	if err != nil {
		t.Fatal(err)
	}

	approved := types.StatusApproved
	if _, err := service.Update(ctx, studentPrincipal, resource.ID, UpdateResourceInput{Status: &approved}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner student must not self-approve, got %v", err)
	}
	if len(events.events) != 0 {
		t.Errorf("no audit entry expected, got %d", len(events.events))
	}
}

func TestModerationTransitions(t *testing.T) {
	service, _, events, _ := newResourceService()
	ctx := context.Background()

	resource, err := service.Create(ctx, studentPrincipal, linkInput("Notes"))
	if err != nil {
		t.Fatal(err)
	}

	approved := types.StatusApproved
	updated, err := service.Update(ctx, adminPrincipal, resource.ID, UpdateResourceInput{Status: &approved})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != types.StatusApproved {
		t.Fatalf("status = %s, want approved", updated.Status)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(events.events))
	}
	event := events.events[0]
	if event.FromStatus != types.StatusPending || event.ToStatus != types.StatusApproved {
		t.Errorf("audit entry %+v", event)
	}
	if event.ActorID != adminPrincipal.ExternalID {
		t.Errorf("actor = %s, want %s", event.ActorID, adminPrincipal.ExternalID)
	}

	// Re-applying the current status is a no-op with no new audit entry.
	if _, err := service.Update(ctx, adminPrincipal, resource.ID, UpdateResourceInput{Status: &approved}); err != nil {
		t.Fatalf("idempotent approve: %v", err)
	}
	if len(events.events) != 1 {
		t.Errorf("idempotent approve must not add audit entries, got %d", len(events.events))
	}

	// A resource never returns to pending.
	pending := types.StatusPending
	if _, err := service.Update(ctx, adminPrincipal, resource.ID, UpdateResourceInput{Status: &pending}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	// Approved and rejected flip freely.
	rejected := types.StatusRejected
	if _, err := service.Update(ctx, adminPrincipal, resource.ID, UpdateResourceInput{Status: &rejected}); err != nil {
		t.Fatalf("reject approved: %v", err)
	}
	if _, err := service.Update(ctx, adminPrincipal, resource.ID, UpdateResourceInput{Status: &approved}); err != nil {
		t.Fatalf("re-approve rejected: %v", err)
	}

	history, err := service.History(ctx, resource.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("expected 3 audit entries, got %d", len(history))
	}
}

func TestUpdateReplacesStoredFile(t *testing.T) {
	service, _, _, objects := newResourceService()
	ctx := context.Background()

	resource, err := service.Create(ctx, studentPrincipal, CreateResourceInput{
		Title:        "Past paper",
		ResourceType: types.ResourcePDF,
		ModuleID:     1,
		File:         &FileUpload{Filename: "paper.pdf", Data: []byte("old content")},
	})
	if err != nil {
		t.Fatal(err)
	}
	oldKey := resource.ObjectKey

	updated, err := service.Update(ctx, studentPrincipal, resource.ID, UpdateResourceInput{
		File: &FileUpload{Filename: "paper-v2.pdf", Data: []byte("new content")},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.ObjectKey == oldKey {
		t.Error("replacement must store under a fresh key")
	}
	if _, ok := objects.objects[oldKey]; ok {
		t.Error("old object must be removed")
	}
	if len(objects.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(objects.objects))
	}
	if updated.URL != fmt.Sprintf("/api/resources/%d/file", resource.ID) {
		t.Errorf("url = %q", updated.URL)
	}

	_, reader, err := service.Open(ctx, resource.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new content" {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestDeleteRemovesStoredObject(t *testing.T) {
	service, repo, _, objects := newResourceService()
	ctx := context.Background()

	resource, err := service.Create(ctx, studentPrincipal, CreateResourceInput{
		Title:        "Past paper",
		ResourceType: types.ResourcePDF,
		ModuleID:     1,
		File:         &FileUpload{Filename: "paper.pdf", Data: []byte("content")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := service.Delete(ctx, studentPrincipal, resource.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(objects.objects) != 0 {
		t.Errorf("stored object not removed")
	}
	if _, err := repo.Get(ctx, resource.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("resource row not removed: %v", err)
	}
}
