package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

type fakeTasksAPI struct {
	mu      sync.Mutex
	lists   []*tasks.TaskList
	items   map[string][]*tasks.Task
	nextID  int
	patches int
	// failures queued per "METHOD path pattern"
	fail map[string][]int
	hits map[string]int
}

func newFakeTasksAPI() *fakeTasksAPI {
	return &fakeTasksAPI{
		items: make(map[string][]*tasks.Task),
		fail:  make(map[string][]int),
		hits:  make(map[string]int),
	}
}

func (f *fakeTasksAPI) addList(id, title string) {
	f.lists = append(f.lists, &tasks.TaskList{Id: id, Title: title})
}

func (f *fakeTasksAPI) addTask(listID string, gt *tasks.Task) {
	f.items[listID] = append(f.items[listID], gt)
}

func (f *fakeTasksAPI) lookup(listID, taskID string) *tasks.Task {
	for _, gt := range f.items[listID] {
		if gt.Id == taskID {
			return gt
		}
	}
	return nil
}

func (f *fakeTasksAPI) handler() http.Handler {
	mux := http.NewServeMux()
	wrap := func(pattern string, h func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.hits[pattern]++
			if queued := f.fail[pattern]; len(queued) > 0 {
				f.fail[pattern] = queued[1:]
				writeError(w, queued[0])
				return
			}
			h(w, r)
		})
	}

	wrap("GET /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &tasks.TaskLists{Items: f.lists})
	})
	wrap("POST /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		var tl tasks.TaskList
		json.NewDecoder(r.Body).Decode(&tl)
		f.nextID++
		tl.Id = fmt.Sprintf("list-%d", f.nextID)
		f.lists = append(f.lists, &tl)
		writeJSON(w, &tl)
	})
	wrap("GET /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &tasks.Tasks{Items: f.items[r.PathValue("list")]})
	})
	wrap("POST /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		var gt tasks.Task
		json.NewDecoder(r.Body).Decode(&gt)
		f.nextID++
		gt.Id = fmt.Sprintf("g-%d", f.nextID)
		f.addTask(r.PathValue("list"), &gt)
		writeJSON(w, &gt)
	})
	wrap("GET /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		gt := f.lookup(r.PathValue("list"), r.PathValue("task"))
		if gt == nil {
			writeError(w, http.StatusNotFound)
			return
		}
		writeJSON(w, gt)
	})
	wrap("PATCH /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		gt := f.lookup(r.PathValue("list"), r.PathValue("task"))
		if gt == nil {
			writeError(w, http.StatusNotFound)
			return
		}
		var fields map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&fields)
		for key, raw := range fields {
			var s *string
			json.Unmarshal(raw, &s)
			value := ""
			if s != nil {
				value = *s
			}
			switch key {
			case "title":
				gt.Title = value
			case "notes":
				gt.Notes = value
			case "due":
				gt.Due = value
			case "status":
				gt.Status = value
			case "completed":
				gt.Completed = s
			}
		}
		f.patches++
		writeJSON(w, gt)
	})
	wrap("DELETE /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("list")
		kept := f.items[listID][:0]
		found := false
		for _, gt := range f.items[listID] {
			if gt.Id == r.PathValue("task") {
				found = true
				continue
			}
			kept = append(kept, gt)
		}
		if !found {
			writeError(w, http.StatusNotFound)
			return
		}
		f.items[listID] = kept
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"%s"}}`, code, http.StatusText(code))
}

func newTestClient(t *testing.T, api *fakeTasksAPI) *TasksClient {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	srv, err := tasks.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("tasks.NewService failed: %v", err)
	}
	return NewTasksClient(srv, "TaskFlow", time.Millisecond)
}

func TestListTasks(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "Inbox")
	api.addList("L2", "TaskFlow")
	api.addTask("L1", &tasks.Task{Id: "g-a", Title: "Gym (9:00 AM - 10:00 AM)", Due: "2024-06-01T00:00:00.000Z", Status: "needsAction"})
	api.addTask("L2", &tasks.Task{Id: "g-b", Title: "Read", Status: "completed"})
	api.addTask("L2", &tasks.Task{Id: "g-c", Title: "Gone", Deleted: true})

	c := newTestClient(t, api)
	got, err := c.ListTasks(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].Title != "Gym" || got[0].StartTime != "9:00 AM" || got[0].EndTime != "10:00 AM" {
		t.Errorf("title not unpacked: %+v", got[0])
	}
	if got[0].OwnerIdentity != "a@x.com" || got[0].ExternalID != "g-a" {
		t.Errorf("identity not carried: %+v", got[0])
	}
	if got[1].Status != model.COMPLETED {
		t.Errorf("expected completed, got %s", got[1].Status)
	}
}

func TestCreateTaskUsesConfiguredList(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "Inbox")
	api.addList("L2", "TaskFlow")

	c := newTestClient(t, api)
	id, err := c.CreateTask(context.Background(), model.Task{
		Title:         "Gym",
		StartTime:     "9:00 AM",
		EndTime:       "10:00 AM",
		ScheduledDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if len(api.items["L2"]) != 1 || api.items["L2"][0].Id != id {
		t.Fatalf("task not created in configured list: %+v", api.items)
	}
	if api.items["L2"][0].Title != "Gym (9:00 AM - 10:00 AM)" {
		t.Errorf("unexpected packed title %q", api.items["L2"][0].Title)
	}
}

func TestCreateTaskCreatesListWhenNoneExist(t *testing.T) {
	api := newFakeTasksAPI()
	c := newTestClient(t, api)

	if _, err := c.CreateTask(context.Background(), model.Task{Title: "First"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if len(api.lists) != 1 || api.lists[0].Title != "TaskFlow" {
		t.Fatalf("expected list TaskFlow to be created, got %+v", api.lists)
	}
}

func TestUpdateTaskPatchesOnlyOnChange(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "TaskFlow")
	api.addTask("L1", &tasks.Task{Id: "g-a", Title: "Gym", Notes: "legs", Status: "needsAction"})

	c := newTestClient(t, api)
	task := model.Task{ExternalID: "g-a", Title: "Gym", Description: "legs", Status: model.PENDING}
	if err := c.UpdateTask(context.Background(), task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if api.patches != 0 {
		t.Fatalf("expected no patch for unchanged task, got %d", api.patches)
	}

	task.Description = "arms"
	if err := c.UpdateTask(context.Background(), task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if api.patches != 1 || api.items["L1"][0].Notes != "arms" {
		t.Fatalf("expected one patch setting notes, got %d %q", api.patches, api.items["L1"][0].Notes)
	}
}

func TestSetCompleted(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "Inbox")
	api.addList("L2", "TaskFlow")
	api.addTask("L2", &tasks.Task{Id: "g-a", Title: "Gym", Status: "needsAction"})

	c := newTestClient(t, api)
	if err := c.SetCompleted(context.Background(), "g-a", true); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	if api.items["L2"][0].Status != "completed" {
		t.Fatalf("expected completed, got %q", api.items["L2"][0].Status)
	}
	if err := c.SetCompleted(context.Background(), "g-a", false); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	if api.items["L2"][0].Status != "needsAction" {
		t.Fatalf("expected needsAction, got %q", api.items["L2"][0].Status)
	}
}

func TestSetCompletedUnknownTask(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "TaskFlow")
	c := newTestClient(t, api)

	if err := c.SetCompleted(context.Background(), "nope", true); err != model.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTaskAndDeleteAll(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "TaskFlow")
	api.addTask("L1", &tasks.Task{Id: "g-a", Title: "A"})
	api.addTask("L1", &tasks.Task{Id: "g-b", Title: "B"})
	api.addTask("L1", &tasks.Task{Id: "g-c", Title: "C"})

	c := newTestClient(t, api)
	if err := c.DeleteTask(context.Background(), "g-a"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := c.DeleteTask(context.Background(), "g-a"); err != nil {
		t.Fatalf("deleting a missing task should succeed, got %v", err)
	}

	n, err := c.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if n != 2 || len(api.items["L1"]) != 0 {
		t.Fatalf("expected 2 deleted and none left, got %d and %d", n, len(api.items["L1"]))
	}
}

func TestRetryOnce(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("L1", "TaskFlow")
	api.fail["GET /tasks/v1/users/@me/lists"] = []int{http.StatusServiceUnavailable}

	c := newTestClient(t, api)
	if _, err := c.ListTasks(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if hits := api.hits["GET /tasks/v1/users/@me/lists"]; hits != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}

	api.fail["GET /tasks/v1/users/@me/lists"] = []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable}
	if _, err := c.ListTasks(context.Background(), "a@x.com"); err == nil {
		t.Fatal("expected failure after the single retry")
	}
	if hits := api.hits["GET /tasks/v1/users/@me/lists"]; hits != 4 {
		t.Fatalf("expected exactly one retry, got %d attempts", hits)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	api := newFakeTasksAPI()
	api.fail["GET /tasks/v1/users/@me/lists"] = []int{http.StatusForbidden}

	c := newTestClient(t, api)
	if _, err := c.ListTasks(context.Background(), "a@x.com"); err == nil {
		t.Fatal("expected forbidden error")
	}
	if hits := api.hits["GET /tasks/v1/users/@me/lists"]; hits != 1 {
		t.Fatalf("expected no retry, got %d attempts", hits)
	}
}
