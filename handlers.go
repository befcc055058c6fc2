package taskwell

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nyaruka/gocommon/uuids"
	"github.com/taskwell/taskwell/models"
	validator "gopkg.in/go-playground/validator.v9"
)

// writeRequestError writes a 400 for any request decoding problem, keeping
// per-field messages for validation failures
func writeRequestError(ctx context.Context, w http.ResponseWriter, err error) {
	if _, isValidation := err.(validator.ValidationErrors); isValidation {
		WriteError(ctx, w, err)
		return
	}
	WriteBadRequest(w, "unable to parse request")
}

type listTodosForm struct {
	Filter string `name:"filter" validate:"omitempty,oneof=ALL DONE TODO"`
}

type itemsResponse struct {
	Items []*models.TodoItem `json:"items"`
}

func (s *server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form := &listTodosForm{}
	if err := DecodeAndValidateForm(form, r); err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	if form.Filter == "" {
		form.Filter = string(models.FilterAll)
	}

	items, err := s.store.ListByOwner(ctx, ownerID(ctx), models.Filter(form.Filter))
	if err != nil {
		WriteError(ctx, w, err)
		return
	}

	WriteDataResponse(w, http.StatusOK, &itemsResponse{Items: items})
}

type createTodoRequest struct {
	Name    string `json:"name"    validate:"required"`
	DueDate string `json:"dueDate" validate:"required,date"`
}

func (s *server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload := &createTodoRequest{}
	if err := DecodeAndValidateJSON(payload, r); err != nil {
		writeRequestError(ctx, w, err)
		return
	}

	item := models.NewTodoItem(ownerID(ctx), payload.Name, payload.DueDate)
	if err := s.store.Create(ctx, item); err != nil {
		WriteError(ctx, w, err)
		return
	}

	WriteDataResponse(w, http.StatusCreated, item)
}

func (s *server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "todoID")

	update := &models.TodoUpdate{}
	if err := DecodeAndValidateJSON(update, r); err != nil {
		writeRequestError(ctx, w, err)
		return
	}

	if err := s.store.Update(ctx, ownerID(ctx), itemID, update); err != nil {
		WriteError(ctx, w, err)
		return
	}

	WriteDataResponse(w, http.StatusOK, update)
}

func (s *server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "todoID")

	// read the item first so we know whether there's an attachment object to
	// clean up.. an already deleted item just makes this a noop
	item, err := s.store.Get(ctx, ownerID(ctx), itemID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		WriteError(ctx, w, err)
		return
	}

	if item != nil {
		if err := s.store.Delete(ctx, ownerID(ctx), itemID); err != nil {
			WriteError(ctx, w, err)
			return
		}

		if item.AttachmentURL != "" {
			// an orphaned object is preferable to failing a delete the store
			// already applied, so this is logged rather than propagated
			if err := s.attachments.Delete(ctx, s.attachments.ImageID(item.AttachmentURL)); err != nil {
				slog.Warn("error deleting attachment object", "item_id", itemID, "error", err)
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

func (s *server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "todoID")

	// item must exist and belong to the caller before any URL is issued
	item, err := s.store.Get(ctx, ownerID(ctx), itemID)
	if err != nil {
		WriteError(ctx, w, err)
		return
	}

	imageID := string(uuids.NewV4())

	if err := s.store.SetAttachmentURL(ctx, ownerID(ctx), itemID, s.attachments.PublicURL(imageID)); err != nil {
		WriteError(ctx, w, err)
		return
	}

	// replacing an attachment leaves the old object behind, clean it up
	if item.AttachmentURL != "" {
		if err := s.attachments.Delete(ctx, s.attachments.ImageID(item.AttachmentURL)); err != nil {
			slog.Warn("error deleting replaced attachment object", "item_id", itemID, "error", err)
		}
	}

	uploadURL, err := s.attachments.UploadURL(ctx, imageID)
	if err != nil {
		WriteError(ctx, w, err)
		return
	}

	WriteDataResponse(w, http.StatusOK, &uploadURLResponse{UploadURL: uploadURL})
}

func (s *server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "todoID")

	item, err := s.store.Get(ctx, ownerID(ctx), itemID)
	if err != nil {
		WriteError(ctx, w, err)
		return
	}

	if item.AttachmentURL != "" {
		if err := s.store.ClearAttachment(ctx, ownerID(ctx), itemID); err != nil {
			WriteError(ctx, w, err)
			return
		}
		// the caller asked for the attachment to be gone, so a failure to
		// remove the object is theirs to see
		if err := s.attachments.Delete(ctx, s.attachments.ImageID(item.AttachmentURL)); err != nil {
			WriteError(ctx, w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
