// Package client is a typed HTTP client for the to-do REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abcdjack1/todolist/internal/dto"
	apperrors "github.com/abcdjack1/todolist/internal/errors"
	"github.com/abcdjack1/todolist/internal/models"
	"github.com/abcdjack1/todolist/internal/repository"
)

// Client wraps http.Client with helpers for the task routes. BaseURL
// includes the version prefix, for example http://localhost:8080/v1.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a new Client.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// CreateTask posts a new task.
func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (models.Task, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &out); err != nil {
		return models.Task{}, err
	}
	return out.Task.ToModel(), nil
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &out); err != nil {
		return models.Task{}, err
	}
	return out.Task.ToModel(), nil
}

// UpdateTask replaces a task's editable fields. A nil ReminderTime clears
// the stored reminder.
func (c *Client) UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (models.Task, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPut, "/tasks/"+id, req, &out); err != nil {
		return models.Task{}, err
	}
	return out.Task.ToModel(), nil
}

func (c *Client) CompleteTask(ctx context.Context, id string) (models.Task, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPut, "/tasks/"+id+"/be-done", nil, &out); err != nil {
		return models.Task{}, err
	}
	return out.Task.ToModel(), nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}

// ListToDo returns the open tasks in display order.
func (c *Client) ListToDo(ctx context.Context) ([]models.Task, error) {
	return c.list(ctx, "/tasks/to-do")
}

// ListDone returns completed tasks, most recently updated first.
func (c *Client) ListDone(ctx context.Context) ([]models.Task, error) {
	return c.list(ctx, "/tasks/be-done")
}

// Reorder sends a bulk reorder. After a DataNotFoundError the caller should
// reload the to-do list; some pairs may have been written.
func (c *Client) Reorder(ctx context.Context, pairs []repository.OrderPair) (int64, error) {
	var out dto.ReorderResponse
	if err := c.do(ctx, http.MethodPut, "/tasks/orders", pairs, &out); err != nil {
		return 0, err
	}
	return out.Modified, nil
}

func (c *Client) list(ctx context.Context, path string) ([]models.Task, error) {
	var out dto.TaskListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	tasks := make([]models.Task, len(out.Tasks))
	for i, t := range out.Tasks {
		tasks[i] = t.ToModel()
	}
	return tasks, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return apperrors.Runtime("encode request: %v", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return apperrors.Runtime("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &apperrors.AppError{Kind: apperrors.KindRuntime, Message: fmt.Sprintf("%s %s: %v", method, path, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Runtime("decode response: %v", err)
	}
	return nil
}

// decodeError turns a failure reply back into the taxonomy. Replies without
// a known tag become RuntimeError.
func decodeError(resp *http.Response) error {
	var body apperrors.APIError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return apperrors.Runtime("unexpected status %d", resp.StatusCode)
	}

	switch kind := apperrors.Kind(body.Error); kind {
	case apperrors.KindValidation, apperrors.KindDataNotFound, apperrors.KindDatabase, apperrors.KindRuntime:
		return apperrors.New(kind, body.Message)
	default:
		return apperrors.Runtime("%s", body.Message)
	}
}
