package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/askmate/apiserver/internal/mq"
	"github.com/askmate/apiserver/internal/storage"
	"github.com/askmate/apiserver/internal/store"
	"github.com/askmate/apiserver/types"
	"github.com/google/uuid"
)

// ResourceRepository defines persistence operations for resources.
type ResourceRepository interface {
	Get(ctx context.Context, id int) (types.Resource, error)
	List(ctx context.Context, filter store.ResourceFilter) ([]types.Resource, error)
	Create(ctx context.Context, resource types.Resource) (types.Resource, error)
	Update(ctx context.Context, resource types.Resource) (types.Resource, error)
	Delete(ctx context.Context, id int) error
	IncrementDownloads(ctx context.Context, id int) error
}

// ModerationEventRepository defines persistence for the audit trail.
type ModerationEventRepository interface {
	Create(ctx context.Context, event types.ModerationEvent) (types.ModerationEvent, error)
	ListByResource(ctx context.Context, resourceID int) ([]types.ModerationEvent, error)
}

// ModuleGetter resolves module references on resource creation.
type ModuleGetter interface {
	Get(ctx context.Context, id int) (types.Module, error)
}

// allowedTransitions is the moderation state machine: a privileged
// caller may approve or reject, and may flip between those two, but a
// resource never returns to pending.
var allowedTransitions = map[types.ResourceStatus][]types.ResourceStatus{
	types.StatusPending:  {types.StatusApproved, types.StatusRejected},
	types.StatusApproved: {types.StatusRejected},
	types.StatusRejected: {types.StatusApproved},
}

func transitionAllowed(from, to types.ResourceStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ResourceService governs the resource lifecycle: creation with
// role-derived initial status, approved-only public listing, ownership
// checks, guarded moderation transitions with an audit trail, and file
// persistence in object storage.
type ResourceService struct {
	repo    ResourceRepository
	events  ModerationEventRepository
	modules ModuleGetter
	objects storage.ObjectStorage
	broker  *mq.MQ
	channel string
}

func NewResourceService(
	repo ResourceRepository,
	events ModerationEventRepository,
	modules ModuleGetter,
	objects storage.ObjectStorage,
	broker *mq.MQ,
	channel string,
) *ResourceService {
	return &ResourceService{
		repo:    repo,
		events:  events,
		modules: modules,
		objects: objects,
		broker:  broker,
		channel: channel,
	}
}

// FileUpload is an uploaded file payload.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateResourceInput carries resource metadata plus either an external
// URL or an uploaded file.
type CreateResourceInput struct {
	Title        string
	Description  string
	ResourceType types.ResourceType
	Category     string
	URL          string
	ModuleID     int
	File         *FileUpload
}

// Create persists a new resource. Uploads by admins and lecturers are
// approved immediately; everything else starts pending.
func (s *ResourceService) Create(ctx context.Context, principal types.Principal, input CreateResourceInput) (types.Resource, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return types.Resource{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.ModuleID == 0 {
		return types.Resource{}, fmt.Errorf("%w: moduleId is required", ErrValidation)
	}
	if !input.ResourceType.Valid() {
		return types.Resource{}, fmt.Errorf("%w: invalid resource type", ErrValidation)
	}
	if input.File == nil && strings.TrimSpace(input.URL) == "" {
		return types.Resource{}, fmt.Errorf("%w: a url or file is required", ErrValidation)
	}

	if _, err := s.modules.Get(ctx, input.ModuleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Resource{}, fmt.Errorf("%w: module does not exist", ErrValidation)
		}
		return types.Resource{}, err
	}

	status := types.StatusPending
	if principal.Role.Privileged() {
		status = types.StatusApproved
	}

	resource := types.Resource{
		Title:        input.Title,
		Description:  input.Description,
		ResourceType: input.ResourceType,
		Category:     input.Category,
		URL:          strings.TrimSpace(input.URL),
		ModuleID:     input.ModuleID,
		UploadedBy:   principal.ExternalID,
		UploaderName: principal.Email,
		UploaderRole: principal.Role,
		Status:       status,
	}

	if input.File != nil {
		key, err := s.putObject(ctx, input.File)
		if err != nil {
			return types.Resource{}, err
		}
		resource.ObjectKey = key
	}

	created, err := s.repo.Create(ctx, resource)
	if err != nil {
		if resource.ObjectKey != "" {
			_ = s.objects.Delete(ctx, resource.ObjectKey)
		}
		return types.Resource{}, err
	}

	if created.ObjectKey != "" {
		created.URL = fileURL(created.ID)
		created, err = s.repo.Update(ctx, created)
		if err != nil {
			return types.Resource{}, err
		}
	}
	return created, nil
}

// ListInput narrows resource listings. An empty Status applies the
// public-view policy (approved only); "all" lifts the filter.
type ListInput struct {
	ModuleID   int
	UploadedBy string
	Status     string
}

func (s *ResourceService) List(ctx context.Context, input ListInput) ([]types.Resource, error) {
	filter := store.ResourceFilter{
		ModuleID:   input.ModuleID,
		UploadedBy: input.UploadedBy,
	}

	switch input.Status {
	case "":
		filter.Status = types.StatusApproved
	case "all":
		// no status filter
	default:
		status := types.ResourceStatus(input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: invalid status filter", ErrValidation)
		}
		filter.Status = status
	}

	return s.repo.List(ctx, filter)
}

func (s *ResourceService) Get(ctx context.Context, id int) (types.Resource, error) {
	return s.repo.Get(ctx, id)
}

// Open returns a reader over a resource's stored file and bumps the
// download counter.
func (s *ResourceService) Open(ctx context.Context, id int) (types.Resource, io.ReadCloser, error) {
	resource, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Resource{}, nil, err
	}
	if resource.ObjectKey == "" {
		return types.Resource{}, nil, fmt.Errorf("%w: resource has no stored file", ErrValidation)
	}

	reader, err := s.objects.Get(ctx, resource.ObjectKey)
	if err != nil {
		return types.Resource{}, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		log.Printf("increment downloads for resource %d: %v", id, err)
	}
	return resource, reader, nil
}

// UpdateResourceInput carries a partial metadata update. Nil pointers
// leave a field unchanged.
type UpdateResourceInput struct {
	Title       *string
	Description *string
	Category    *string
	URL         *string
	Status      *types.ResourceStatus
	File        *FileUpload
}

// Update applies a partial update. Metadata may be edited by the
// uploader or a privileged caller; status transitions are privileged
// only and must follow the transition table. Re-applying the current
// status is an idempotent no-op.
func (s *ResourceService) Update(ctx context.Context, principal types.Principal, id int, input UpdateResourceInput) (types.Resource, error) {
	resource, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Resource{}, err
	}

	if !s.canMutate(principal, resource) {
		return types.Resource{}, ErrForbidden
	}

	fromStatus := resource.Status
	if input.Status != nil && *input.Status != fromStatus {
		if !principal.Role.Privileged() {
			return types.Resource{}, ErrForbidden
		}
		if !input.Status.Valid() {
			return types.Resource{}, fmt.Errorf("%w: invalid status", ErrValidation)
		}
		if !transitionAllowed(fromStatus, *input.Status) {
			return types.Resource{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fromStatus, *input.Status)
		}
		resource.Status = *input.Status
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return types.Resource{}, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		resource.Title = title
	}
	if input.Description != nil {
		resource.Description = *input.Description
	}
	if input.Category != nil {
		resource.Category = *input.Category
	}
	if input.URL != nil && resource.ObjectKey == "" {
		resource.URL = strings.TrimSpace(*input.URL)
	}

	if input.File != nil {
		key, err := s.putObject(ctx, input.File)
		if err != nil {
			return types.Resource{}, err
		}
		if resource.ObjectKey != "" {
			_ = s.objects.Delete(ctx, resource.ObjectKey)
		}
		resource.ObjectKey = key
		resource.URL = fileURL(resource.ID)
	}

	updated, err := s.repo.Update(ctx, resource)
	if err != nil {
		return types.Resource{}, err
	}

	if updated.Status != fromStatus {
		s.recordTransition(ctx, principal, updated, fromStatus)
	}
	return updated, nil
}

// Delete removes a resource and its stored file, if any.
func (s *ResourceService) Delete(ctx context.Context, principal types.Principal, id int) error {
	resource, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.canMutate(principal, resource) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if resource.ObjectKey != "" {
		if err := s.objects.Delete(ctx, resource.ObjectKey); err != nil {
			log.Printf("delete object %s for resource %d: %v", resource.ObjectKey, id, err)
		}
	}
	return nil
}

// History returns a resource's moderation audit trail.
func (s *ResourceService) History(ctx context.Context, id int) ([]types.ModerationEvent, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByResource(ctx, id)
}

func (s *ResourceService) canMutate(principal types.Principal, resource types.Resource) bool {
	return principal.Role.Privileged() || principal.ExternalID == resource.UploadedBy
}

func (s *ResourceService) putObject(ctx context.Context, file *FileUpload) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("%w: empty file upload", ErrValidation)
	}

	key := uuid.NewString() + strings.ToLower(path.Ext(file.Filename))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.objects.Put(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), contentType); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return key, nil
}

func (s *ResourceService) recordTransition(ctx context.Context, principal types.Principal, resource types.Resource, from types.ResourceStatus) {
	event := types.ModerationEvent{
		ResourceID: resource.ID,
		ActorID:    principal.ExternalID,
		ActorRole:  principal.Role,
		FromStatus: from,
		ToStatus:   resource.Status,
	}

	saved, err := s.events.Create(ctx, event)
	if err != nil {
		log.Printf("record moderation event for resource %d: %v", resource.ID, err)
		return
	}

	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(saved)
	if err != nil {
		return
	}
	if _, err := s.broker.Publish(ctx, s.channel, payload, map[string]string{
		"resource_id": fmt.Sprint(resource.ID),
		"to_status":   string(resource.Status),
	}); err != nil {
		log.Printf("publish moderation event for resource %d: %v", resource.ID, err)
	}
}

func fileURL(id int) string {
	return fmt.Sprintf("/api/resources/%d/file", id)
}
