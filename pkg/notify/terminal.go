package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// Terminal prints reminders to a writer.
type Terminal struct {
	W   io.Writer
	Now func() time.Time
}

func (t Terminal) Notify(_ context.Context, tasks []model.Task, displayDate string) error {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	_, err := fmt.Fprint(t.W, Render("Reminders for "+displayDate, tasks, now()))
	return err
}
