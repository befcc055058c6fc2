package taskwell

import (
	"context"
	"fmt"
	"path"
	"slices"

	"github.com/taskwell/taskwell/models"
)

// MockTodoStore is an in-memory TodoStore for use in testing
type MockTodoStore struct {
	items []*models.TodoItem

	// when set, all operations fail with this error
	err error
}

// NewMockTodoStore creates a new mock store containing the passed in items
func NewMockTodoStore(items ...*models.TodoItem) *MockTodoStore {
	return &MockTodoStore{items: items}
}

// SetError makes all subsequent operations fail with the given error
func (s *MockTodoStore) SetError(err error) { s.err = err }

// Items returns the current contents of the store
func (s *MockTodoStore) Items() []*models.TodoItem { return s.items }

func (s *MockTodoStore) find(ownerID, itemID string) *models.TodoItem {
	for _, item := range s.items {
		if item.OwnerID == ownerID && item.ItemID == itemID {
			return item
		}
	}
	return nil
}

func (s *MockTodoStore) ListAll(ctx context.Context) ([]*models.TodoItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.items), nil
}

func (s *MockTodoStore) ListByOwner(ctx context.Context, ownerID string, filter models.Filter) ([]*models.TodoItem, error) {
	if s.err != nil {
		return nil, s.err
	}

	items := make([]*models.TodoItem, 0, len(s.items))
	for _, item := range s.items {
		if item.OwnerID != ownerID {
			continue
		}
		if (filter == models.FilterDone && !item.Done) || (filter == models.FilterTodo && item.Done) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *MockTodoStore) Create(ctx context.Context, item *models.TodoItem) error {
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, item)
	return nil
}

func (s *MockTodoStore) Get(ctx context.Context, ownerID, itemID string) (*models.TodoItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if item := s.find(ownerID, itemID); item != nil {
		return item, nil
	}
	return nil, models.ErrNotFound
}

func (s *MockTodoStore) Update(ctx context.Context, ownerID, itemID string, update *models.TodoUpdate) error {
	if s.err != nil {
		return s.err
	}
	item := s.find(ownerID, itemID)
	if item == nil {
		return models.ErrNotFound
	}
	item.Name = update.Name
	item.DueDate = update.DueDate
	item.Done = update.Done
	return nil
}

func (s *MockTodoStore) SetAttachmentURL(ctx context.Context, ownerID, itemID, url string) error {
	if s.err != nil {
		return s.err
	}
	item := s.find(ownerID, itemID)
	if item == nil {
		return models.ErrNotFound
	}
	item.AttachmentURL = url
	return nil
}

func (s *MockTodoStore) ClearAttachment(ctx context.Context, ownerID, itemID string) error {
	if s.err != nil {
		return s.err
	}
	item := s.find(ownerID, itemID)
	if item == nil {
		return models.ErrNotFound
	}
	item.AttachmentURL = ""
	return nil
}

func (s *MockTodoStore) Delete(ctx context.Context, ownerID, itemID string) error {
	if s.err != nil {
		return s.err
	}
	s.items = slices.DeleteFunc(s.items, func(item *models.TodoItem) bool {
		return item.OwnerID == ownerID && item.ItemID == itemID
	})
	return nil
}

// MockAttachmentStore is an AttachmentStore for use in testing that mints
// deterministic URLs and records deletions
type MockAttachmentStore struct {
	bucket  string
	deleted []string

	// when set, object operations fail with this error
	err error
}

// NewMockAttachmentStore creates a new mock attachment store
func NewMockAttachmentStore() *MockAttachmentStore {
	return &MockAttachmentStore{bucket: "test-attachments"}
}

// SetError makes subsequent object operations fail with the given error
func (s *MockAttachmentStore) SetError(err error) { s.err = err }

// Deleted returns the image IDs deleted so far
func (s *MockAttachmentStore) Deleted() []string { return s.deleted }

func (s *MockAttachmentStore) UploadURL(ctx context.Context, imageID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/attachments/%s?X-Amz-Signature=test", s.bucket, imageID), nil
}

func (s *MockAttachmentStore) PublicURL(imageID string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/attachments/%s", s.bucket, imageID)
}

func (s *MockAttachmentStore) ImageID(url string) string {
	return path.Base(url)
}

func (s *MockAttachmentStore) Delete(ctx context.Context, imageID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, imageID)
	return nil
}

func (s *MockAttachmentStore) Test(ctx context.Context) error { return nil }
