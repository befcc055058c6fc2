// Package client is a thin wrapper around the taskwell HTTP API, used by the
// terminal client and usable by anything else that holds a bearer token.
package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	"github.com/nyaruka/gocommon/httpx"
	"github.com/nyaruka/gocommon/jsonx"
	"github.com/taskwell/taskwell/models"
)

const maxResponseBytes = 1024 * 1024

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("api returned %d: %s", e.StatusCode, strings.Join(e.Messages, ", "))
	}
	return fmt.Sprintf("api returned %d", e.StatusCode)
}

// Client is a taskwell API client for a single authenticated user
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a new client for the given API endpoint, attaching the
// given bearer token to every request
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) request(method, path string, payload, response any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(jsonx.MustMarshal(payload))
	}

	req, err := httpx.NewRequest(method, c.endpoint+path, body, map[string]string{
		"Authorization": "Bearer " + c.token,
		"Content-Type":  "application/json",
	})
	if err != nil {
		return err
	}

	trace, err := httpx.DoTrace(c.httpClient, req, nil, nil, maxResponseBytes)
	if err != nil {
		return err
	}

	if trace.Response.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: trace.Response.StatusCode}
		errBody := &struct {
			Errors []string `json:"errors"`
		}{}
		if jsonx.Unmarshal(trace.ResponseBody, errBody) == nil {
			apiErr.Messages = errBody.Errors
		}
		return apiErr
	}

	if response != nil {
		return jsonx.Unmarshal(trace.ResponseBody, response)
	}
	return nil
}

// ListTodos fetches the caller's items, narrowed by the given filter
func (c *Client) ListTodos(filter models.Filter) ([]*models.TodoItem, error) {
	response := &struct {
		Items []*models.TodoItem `json:"items"`
	}{}

	path := "/todos"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(string(filter))
	}
	if err := c.request("GET", path, nil, response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

// CreateTodo creates a new item with the given name and due date
func (c *Client) CreateTodo(name, dueDate string) (*models.TodoItem, error) {
	payload := &struct {
		Name    string `json:"name"`
		DueDate string `json:"dueDate"`
	}{Name: name, DueDate: dueDate}

	item := &models.TodoItem{}
	if err := c.request("POST", "/todos", payload, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateTodo overwrites the mutable fields of the item with the given ID
func (c *Client) UpdateTodo(itemID string, update *models.TodoUpdate) error {
	return c.request("PATCH", "/todos/"+url.PathEscape(itemID), update, nil)
}

// DeleteTodo deletes the item with the given ID
func (c *Client) DeleteTodo(itemID string) error {
	return c.request("DELETE", "/todos/"+url.PathEscape(itemID), nil, nil)
}

// CreateAttachmentURL asks the server for a pre-signed upload URL for the item
// with the given ID
func (c *Client) CreateAttachmentURL(itemID string) (string, error) {
	response := &struct {
		UploadURL string `json:"uploadUrl"`
	}{}
	if err := c.request("POST", "/todos/"+url.PathEscape(itemID)+"/attachment", nil, response); err != nil {
		return "", err
	}
	return response.UploadURL, nil
}

// DeleteAttachment removes the attachment of the item with the given ID
func (c *Client) DeleteAttachment(itemID string) error {
	return c.request("DELETE", "/todos/"+url.PathEscape(itemID)+"/attachment", nil, nil)
}

// UploadAttachment PUTs the given image body directly to the given pre-signed
// URL, sniffing its content type from the body itself
func (c *Client) UploadAttachment(uploadURL string, data []byte) error {
	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	req, err := httpx.NewRequest("PUT", uploadURL, bytes.NewReader(data), map[string]string{
		"Content-Type": contentType,
	})
	if err != nil {
		return err
	}

	trace, err := httpx.DoTrace(c.httpClient, req, nil, nil, maxResponseBytes)
	if err != nil {
		return err
	}
	if trace.Response.StatusCode/100 != 2 {
		return &APIError{StatusCode: trace.Response.StatusCode}
	}
	return nil
}
