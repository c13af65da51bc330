package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender mails the task list to a single recipient from the signed-in account.
type GmailSender struct {
	srv *gmail.Service
	to  string
}

func NewGmailSender(srv *gmail.Service, to string) *GmailSender {
	return &GmailSender{srv: srv, to: to}
}

// NewGmailClient creates a sender authorised by ts.
func NewGmailClient(ctx context.Context, ts oauth2.TokenSource, to string, opts ...option.ClientOption) (*GmailSender, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Gmail client: %w", err)
	}
	return NewGmailSender(srv, to), nil
}

func (g *GmailSender) Notify(ctx context.Context, tasks []model.Task, displayDate string) error {
	if g.to == "" {
		return fmt.Errorf("no summary recipient configured")
	}
	raw, err := BuildMessage(g.to, "TaskFlow: your tasks for "+displayDate, SummaryBody(tasks, displayDate))
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.srv.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to send summary to %s: %w", g.to, err)
	}
	return nil
}

// BuildMessage renders a plain text RFC 5322 message. Gmail fills in the sender.
func BuildMessage(to, subject, body string) ([]byte, error) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", addr.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes(), nil
}

// SummaryBody is the plain text listing sent by email.
func SummaryBody(tasks []model.Task, displayDate string) string {
	var b strings.Builder
	if len(tasks) == 0 {
		fmt.Fprintf(&b, "You have no tasks scheduled for %s.\n", displayDate)
		return b.String()
	}

	fmt.Fprintf(&b, "Your tasks for %s:\n\n", displayDate)
	for _, t := range tasks {
		fmt.Fprintf(&b, "- %s  %s [%s]\n", TimeRange(t), t.Title, t.Status)
		if t.Description != "" {
			fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(t.Description, "\n", "\n    "))
		}
	}
	return b.String()
}
