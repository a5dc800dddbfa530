package types

import "time"

// ResourceStatus is the moderation state of a resource.
type ResourceStatus string

// Resource moderation states.
const (
	StatusPending  ResourceStatus = "pending"
	StatusApproved ResourceStatus = "approved"
	StatusRejected ResourceStatus = "rejected"
)

// Valid reports whether the status is one of the recognized set.
func (s ResourceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ResourceType identifies the kind of content a resource carries.
type ResourceType string

// Recognized resource types.
const (
	ResourcePDF  ResourceType = "pdf"
	ResourceWord ResourceType = "word"
	ResourceText ResourceType = "text"
	ResourceLink ResourceType = "link"
)

// Valid reports whether the resource type is one of the recognized set.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourcePDF, ResourceWord, ResourceText, ResourceLink:
		return true
	}
	return false
}

// Resource is a shareable study material attached to a module. It is
// either an external link or an uploaded file held in object storage.
type Resource struct {
	// ID is the unique identifier of the resource.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the resource.
	Title string `json:"title" db:"title"`

	// Description is an optional free-text description.
	Description string `json:"description" db:"description"`

	// ResourceType is one of pdf, word, text, link.
	ResourceType ResourceType `json:"resourceType" db:"resource_type"`

	// Category is a free-text grouping label, e.g. "Lecture Notes".
	Category string `json:"category" db:"category"`

	// URL is the accessible location of the content. For uploaded files
	// this is the server's own download endpoint; for links it is the
	// external address supplied at creation.
	URL string `json:"url" db:"url"`

	// ObjectKey is the object-storage key of the uploaded file. Empty
	// for link-type resources.
	ObjectKey string `json:"-" db:"object_key"`

	// ModuleID identifies the module this resource belongs to.
	ModuleID int `json:"moduleId" db:"module_id"`

	// UploadedBy is the uploader's external id. It is a snapshot, not a
	// foreign key; the uploader account may be deleted independently.
	UploadedBy string `json:"uploadedBy" db:"uploaded_by"`

	// UploaderName is a snapshot of the uploader's account email taken
	// at creation. Tokens carry no display name, so the email stands in
	// for every role, helpers included.
	UploaderName string `json:"uploaderName" db:"uploader_name"`

	// UploaderRole is the uploader's role at creation time. It decides
	// the initial moderation status.
	UploaderRole Role `json:"uploaderRole" db:"uploader_role"`

	// Status is the moderation state. Resources uploaded by admins and
	// lecturers start approved; everything else starts pending.
	Status ResourceStatus `json:"status" db:"status"`

	// DownloadCount tracks how many times the file has been served.
	DownloadCount int `json:"downloadCount" db:"download_count"`

	// CreatedAt is the timestamp when the resource was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ModerationEvent records a single status transition on a resource:
// who moved it, from which state, to which state, and when.
type ModerationEvent struct {
	ID         int            `json:"id" db:"id"`
	ResourceID int            `json:"resourceId" db:"resource_id"`
	ActorID    string         `json:"actorId" db:"actor_id"`
	ActorRole  Role           `json:"actorRole" db:"actor_role"`
	FromStatus ResourceStatus `json:"fromStatus" db:"from_status"`
	ToStatus   ResourceStatus `json:"toStatus" db:"to_status"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
