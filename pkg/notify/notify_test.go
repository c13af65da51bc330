package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var sample = []model.Task{
	{ID: "t1", Title: "Gym", StartTime: "9:00 AM", EndTime: "10:00 AM", Status: model.PENDING,
		ScheduledDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local), Description: "legs"},
	{ID: "t2", Title: "Read", Status: model.COMPLETED, ScheduledDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)},
}

func TestTimeRange(t *testing.T) {
	cases := map[string]model.Task{
		"9:00 AM - 10:00 AM": {StartTime: "9:00 AM", EndTime: "10:00 AM"},
		"9:00 AM":            {StartTime: "9:00 AM"},
		"all day":            {},
	}
	for want, task := range cases {
		if got := TimeRange(task); got != want {
			t.Errorf("TimeRange = %q, want %q", got, want)
		}
	}
}

func TestRenderShowsDerivedStatus(t *testing.T) {
	now := time.Date(2024, 6, 3, 11, 0, 0, 0, time.Local)
	out := Render("Monday, June 3, 2024", sample, now)
	for _, want := range []string{"Monday, June 3, 2024", "Gym", "OVERDUE", "Read", "COMPLETED", "t1"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestTerminalNotify(t *testing.T) {
	var buf bytes.Buffer
	term := Terminal{W: &buf, Now: func() time.Time { return time.Date(2024, 6, 3, 8, 0, 0, 0, time.Local) }}
	if err := term.Notify(context.Background(), nil, "Monday, June 3, 2024"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no tasks") {
		t.Errorf("expected empty notice, got %q", buf.String())
	}
}

func TestBuildMessage(t *testing.T) {
	raw, err := BuildMessage("a@x.com", "Tasks", "line one\nline two")
	if err != nil {
		t.Fatalf("BuildMessage failed: %v", err)
	}
	msg := string(raw)
	if !strings.Contains(msg, "To: <a@x.com>\r\n") {
		t.Errorf("missing recipient header:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two") {
		t.Errorf("unexpected body:\n%q", msg)
	}

	if _, err := BuildMessage("not an address", "Tasks", ""); err == nil {
		t.Error("expected invalid recipient to fail")
	}
}

func TestSummaryBody(t *testing.T) {
	body := SummaryBody(sample, "Monday, June 3, 2024")
	if !strings.Contains(body, "- 9:00 AM - 10:00 AM  Gym [PENDING]") || !strings.Contains(body, "    legs") {
		t.Errorf("unexpected body:\n%s", body)
	}
	if empty := SummaryBody(nil, "Monday, June 3, 2024"); !strings.Contains(empty, "no tasks") {
		t.Errorf("unexpected empty body: %s", empty)
	}
}

func TestGmailSenderSends(t *testing.T) {
	var got gmail.Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/gmail/v1/users/me/messages/send" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"m1"}`))
	}))
	defer server.Close()

	srv, err := gmail.NewService(context.Background(), option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("gmail.NewService failed: %v", err)
	}
	sender := NewGmailSender(srv, "a@x.com")
	if err := sender.Notify(context.Background(), sample, "Monday, June 3, 2024"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	raw, err := base64.URLEncoding.DecodeString(got.Raw)
	if err != nil {
		t.Fatalf("raw message is not url-safe base64: %v", err)
	}
	if !strings.Contains(string(raw), "Gym") || !strings.Contains(string(raw), "Subject: TaskFlow: your tasks for Monday, June 3, 2024") {
		t.Errorf("unexpected message:\n%s", raw)
	}
}
