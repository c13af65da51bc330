package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

// NewClient creates a new Google Tasks client authorised by ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource, listName string, retryDelay time.Duration, opts ...option.ClientOption) (*TasksClient, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	srv, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Tasks client: %w", err)
	}
	return NewTasksClient(srv, listName, retryDelay), nil
}
