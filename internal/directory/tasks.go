package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/familydo/internal/collection"
	"github.com/dukerupert/familydo/internal/model"
	"golang.org/x/sync/errgroup"
)

// --- Task types ---

func (c *Client) ListTaskTypes(ctx context.Context) ([]model.TaskType, error) {
	var types []model.TaskType
	if err := c.store.List(ctx, collection.TaskTypes, nil, &types); err != nil {
		return nil, fmt.Errorf("list task types: %w", err)
	}
	return types, nil
}

func (c *Client) GetTaskType(ctx context.Context, id int64) (*model.TaskType, error) {
	var tt model.TaskType
	if err := c.store.Get(ctx, collection.TaskTypes, id, &tt); err != nil {
		return nil, fmt.Errorf("get task type: %w", err)
	}
	return &tt, nil
}

func (c *Client) CreateTaskType(ctx context.Context, tt model.TaskType) (*model.TaskType, error) {
	tt.ID = 0
	var created model.TaskType
	if err := c.store.Create(ctx, collection.TaskTypes, tt, &created); err != nil {
		return nil, fmt.Errorf("create task type: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdateTaskType(ctx context.Context, id int64, patch model.TaskTypePatch) (*model.TaskType, error) {
	var updated model.TaskType
	if err := c.store.Update(ctx, collection.TaskTypes, id, patch, &updated); err != nil {
		return nil, fmt.Errorf("update task type: %w", err)
	}
	return &updated, nil
}

// DeleteTaskType removes the type only; tasks referencing it keep the id.
func (c *Client) DeleteTaskType(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, collection.TaskTypes, id); err != nil {
		return fmt.Errorf("delete task type: %w", err)
	}
	return nil
}

// --- Tasks ---

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.store.List(ctx, collection.Tasks, nil, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	if err := c.store.Get(ctx, collection.Tasks, id, &t); err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// CreateTask stores a new task, defaulting the status to new and the
// creation time to now.
func (c *Client) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	t.ID = 0
	if t.Status == "" {
		t.Status = model.StatusNew
	}
	if t.CreatedAt == "" {
		t.CreatedAt = c.now().UTC().Format(time.RFC3339)
	}

	var created model.Task
	if err := c.store.Create(ctx, collection.Tasks, t, &created); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	var updated model.Task
	if err := c.store.Update(ctx, collection.Tasks, id, patch, &updated); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, collection.Tasks, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// --- Screen loads ---

// Board is everything the task list screen needs in one load.
type Board struct {
	Tasks     []model.Task
	Members   []model.Member
	TaskTypes []model.TaskType
}

// LoadTasksAndMembers fetches both collections concurrently for the dashboard.
func (c *Client) LoadTasksAndMembers(ctx context.Context) ([]model.Task, []model.Member, error) {
	var tasks []model.Task
	var members []model.Member

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = c.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = c.ListMembers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tasks, members, nil
}

// LoadBoard fetches tasks, members and task types concurrently.
func (c *Client) LoadBoard(ctx context.Context) (*Board, error) {
	var b Board

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Tasks, err = c.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.Members, err = c.ListMembers(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.TaskTypes, err = c.ListTaskTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &b, nil
}
