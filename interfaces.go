package taskwell

import (
	"context"

	"github.com/taskwell/taskwell/models"
)

// TodoStore is the interface the server uses to read and write items. It
// provides an abstraction that makes mocking easier for isolated unit tests.
type TodoStore interface {
	ListAll(ctx context.Context) ([]*models.TodoItem, error)
	ListByOwner(ctx context.Context, ownerID string, filter models.Filter) ([]*models.TodoItem, error)
	Create(ctx context.Context, item *models.TodoItem) error
	Get(ctx context.Context, ownerID, itemID string) (*models.TodoItem, error)
	Update(ctx context.Context, ownerID, itemID string, update *models.TodoUpdate) error
	SetAttachmentURL(ctx context.Context, ownerID, itemID, url string) error
	ClearAttachment(ctx context.Context, ownerID, itemID string) error
	Delete(ctx context.Context, ownerID, itemID string) error
}

// AttachmentStore is the interface the server uses to manage attachment
// objects and mint their URLs
type AttachmentStore interface {
	// UploadURL returns a short lived, write only URL for the object backing
	// the given image ID
	UploadURL(ctx context.Context, imageID string) (string, error)

	// PublicURL returns the stable readable URL for the object backing the
	// given image ID
	PublicURL(imageID string) string

	// ImageID extracts the image ID from a public URL previously returned by
	// PublicURL
	ImageID(url string) string

	// Delete removes the object backing the given image ID
	Delete(ctx context.Context, imageID string) error

	// Test verifies that the backing bucket is reachable
	Test(ctx context.Context) error
}
