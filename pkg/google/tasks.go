package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/util"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/tasks/v1"
)

// TasksClient is a Google Tasks API client.
type TasksClient struct {
	srv        *tasks.Service
	listName   string
	retryDelay time.Duration

	mu     sync.Mutex
	listID string
	// external task id -> task list id
	owners map[string]string
}

// NewTasksClient wraps srv. New tasks go to the list titled listName.
func NewTasksClient(srv *tasks.Service, listName string, retryDelay time.Duration) *TasksClient {
	return &TasksClient{
		srv:        srv,
		listName:   listName,
		retryDelay: retryDelay,
		owners:     make(map[string]string),
	}
}

// ListTasks fetches every task of every list, completed and hidden ones included.
func (c *TasksClient) ListTasks(ctx context.Context, owner string) ([]model.Task, error) {
	lists, err := c.taskLists(ctx)
	if err != nil {
		return nil, err
	}

	var result []model.Task
	for _, list := range lists {
		var items []*tasks.Task
		err := c.retryOnce(ctx, "list tasks", func() error {
			items = items[:0]
			return c.srv.Tasks.List(list.Id).
				ShowCompleted(true).
				ShowHidden(true).
				MaxResults(100).
				Pages(ctx, func(page *tasks.Tasks) error {
					items = append(items, page.Items...)
					return nil
				})
		})
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve tasks of list %q: %w", list.Title, err)
		}

		for _, item := range items {
			if item.Deleted {
				continue
			}
			c.remember(item.Id, list.Id)
			result = append(result, util.ConvertGoogleTask(item, owner))
		}
	}
	return result, nil
}

// CreateTask inserts the task and returns the id Google assigned to it.
func (c *TasksClient) CreateTask(ctx context.Context, t model.Task) (string, error) {
	gt, err := util.ConvertTaskToGoogleTask(&t)
	if err != nil {
		return "", err
	}
	gt.Id = ""

	listID, err := c.defaultList(ctx)
	if err != nil {
		return "", err
	}

	var created *tasks.Task
	err = c.retryOnce(ctx, "create task", func() error {
		var err error
		created, err = c.srv.Tasks.Insert(listID, gt).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("unable to create task %q: %w", t.Title, err)
	}
	c.remember(created.Id, listID)
	return created.Id, nil
}

// UpdateTask patches only the fields that differ from what Google holds.
func (c *TasksClient) UpdateTask(ctx context.Context, t model.Task) error {
	if t.ExternalID == "" {
		return fmt.Errorf("%w: task %s has no external id", model.ErrInvalidTask, t.ID)
	}
	target, err := util.ConvertTaskToGoogleTask(&t)
	if err != nil {
		return err
	}

	listID, existing, err := c.find(ctx, t.ExternalID)
	if err != nil {
		return err
	}

	patch := util.TaskNeedsUpdate(existing, target)
	if patch == nil {
		return nil
	}
	return c.patch(ctx, listID, t.ExternalID, patch)
}

// SetCompleted flips the completion state of a task.
func (c *TasksClient) SetCompleted(ctx context.Context, externalID string, completed bool) error {
	listID, _, err := c.find(ctx, externalID)
	if err != nil {
		return err
	}
	patch := &tasks.Task{Status: util.StatusNeedsAction, NullFields: []string{"Completed"}}
	if completed {
		patch = &tasks.Task{Status: util.StatusCompleted}
	}
	return c.patch(ctx, listID, externalID, patch)
}

// DeleteTask removes a task. A task that is already gone is not an error.
func (c *TasksClient) DeleteTask(ctx context.Context, externalID string) error {
	listID, _, err := c.find(ctx, externalID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	err = c.retryOnce(ctx, "delete task", func() error {
		return c.srv.Tasks.Delete(listID, externalID).Context(ctx).Do()
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("unable to delete task %s: %w", externalID, err)
	}
	c.forget(externalID)
	return nil
}

// DeleteAll removes every task of every list and reports how many went.
func (c *TasksClient) DeleteAll(ctx context.Context) (int, error) {
	all, err := c.ListTasks(ctx, "")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range all {
		if err := c.DeleteTask(ctx, t.ExternalID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (c *TasksClient) patch(ctx context.Context, listID, externalID string, patch *tasks.Task) error {
	err := c.retryOnce(ctx, "patch task", func() error {
		_, err := c.srv.Tasks.Patch(listID, externalID, patch).Context(ctx).Do()
		return err
	})
	if isNotFound(err) {
		c.forget(externalID)
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unable to update task %s: %w", externalID, err)
	}
	return nil
}

// find locates the list holding externalID, trying the remembered list first.
func (c *TasksClient) find(ctx context.Context, externalID string) (string, *tasks.Task, error) {
	c.mu.Lock()
	known := c.owners[externalID]
	c.mu.Unlock()

	if known != "" {
		gt, err := c.get(ctx, known, externalID)
		if err == nil {
			return known, gt, nil
		}
		if !isNotFound(err) {
			return "", nil, fmt.Errorf("unable to retrieve task %s: %w", externalID, err)
		}
		c.forget(externalID)
	}

	lists, err := c.taskLists(ctx)
	if err != nil {
		return "", nil, err
	}
	for _, list := range lists {
		if list.Id == known {
			continue
		}
		gt, err := c.get(ctx, list.Id, externalID)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("unable to retrieve task %s: %w", externalID, err)
		}
		c.remember(externalID, list.Id)
		return list.Id, gt, nil
	}
	return "", nil, model.ErrNotFound
}

func (c *TasksClient) get(ctx context.Context, listID, externalID string) (*tasks.Task, error) {
	var gt *tasks.Task
	err := c.retryOnce(ctx, "get task", func() error {
		var err error
		gt, err = c.srv.Tasks.Get(listID, externalID).Context(ctx).Do()
		return err
	})
	return gt, err
}

func (c *TasksClient) taskLists(ctx context.Context) ([]*tasks.TaskList, error) {
	var lists []*tasks.TaskList
	err := c.retryOnce(ctx, "list task lists", func() error {
		lists = lists[:0]
		return c.srv.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
			lists = append(lists, page.Items...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve task lists: %w", err)
	}
	return lists, nil
}

// defaultList resolves the list new tasks go to: the configured one, else the
// first list, else a freshly created list.
func (c *TasksClient) defaultList(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.listID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	lists, err := c.taskLists(ctx)
	if err != nil {
		return "", err
	}

	var listID string
	for _, item := range lists {
		if item.Title == c.listName {
			listID = item.Id
			break
		}
	}
	if listID == "" && len(lists) > 0 {
		listID = lists[0].Id
	}
	if listID == "" {
		created, err := c.srv.Tasklists.Insert(&tasks.TaskList{Title: c.listName}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to create task list %q: %w", c.listName, err)
		}
		listID = created.Id
	}

	c.mu.Lock()
	c.listID = listID
	c.mu.Unlock()
	return listID, nil
}

func (c *TasksClient) remember(externalID, listID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[externalID] = listID
}

func (c *TasksClient) forget(externalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.owners, externalID)
}

// retryOnce repeats a failed call a single time after the configured delay.
// Client errors other than rate limiting are returned straight away.
func (c *TasksClient) retryOnce(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !retryable(err) {
		return err
	}
	log.Printf("%s failed, retrying once: %v", op, err)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.retryDelay):
	}
	return fn()
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return true
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
