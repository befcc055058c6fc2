package models

import (
	"errors"
	"time"

	"github.com/nyaruka/gocommon/uuids"
)

// ErrNotFound is returned when a referenced item doesn't exist under the
// caller's partition key - deliberately the same error for "no such item" and
// "item belongs to someone else" so callers can't probe other owners' rows.
var ErrNotFound = errors.New("item not found")

// Filter narrows a listing by completion state
type Filter string

const (
	FilterAll  Filter = "ALL"
	FilterDone Filter = "DONE"
	FilterTodo Filter = "TODO"
)

// TodoItem is a single task owned by an authenticated user, stored in DynamoDB
// keyed by (ownerId, itemId). The owner ID never appears in API responses, the
// caller's identity always comes from their token.
type TodoItem struct {
	OwnerID       string `json:"-"                       dynamodbav:"ownerId"`
	ItemID        string `json:"itemId"                  dynamodbav:"itemId"`
	Name          string `json:"name"                    dynamodbav:"name"`
	CreatedAt     string `json:"createdAt"               dynamodbav:"createdAt"`
	DueDate       string `json:"dueDate"                 dynamodbav:"dueDate"`
	Done          bool   `json:"done"                    dynamodbav:"done"`
	AttachmentURL string `json:"attachmentUrl,omitempty" dynamodbav:"attachmentUrl,omitempty"`
}

// TodoUpdate is the set of mutable fields on an item
type TodoUpdate struct {
	Name    string `json:"name"    validate:"required"`
	DueDate string `json:"dueDate" validate:"required,date"`
	Done    bool   `json:"done"`
}

// NewTodoItem creates a new item for the given owner with a generated ID and
// creation timestamp
func NewTodoItem(ownerID, name, dueDate string) *TodoItem {
	return &TodoItem{
		OwnerID:   ownerID,
		ItemID:    string(uuids.NewV4()),
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		DueDate:   dueDate,
		Done:      false,
	}
}
