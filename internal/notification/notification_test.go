package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestReplyTextMentionsTitleAndStatus(t *testing.T) {
	text := ReplyText("Ciclovia na orla", "Approvata")
	if !strings.Contains(text, "Ciclovia na orla") || !strings.Contains(text, "Approvata") {
		t.Errorf("mensagem incompleta: %s", text)
	}
}

func TestReplySubjectMentionsTitle(t *testing.T) {
	subject := ReplySubject("Ciclovia na orla")
	if !strings.Contains(subject, "Ciclovia na orla") {
		t.Errorf("assunto incompleto: %s", subject)
	}
}

func TestNewWebhookMailerWithoutURL(t *testing.T) {
	if m := NewWebhookMailer("", "no-reply@x"); m != nil {
		t.Error("sem URL o mailer deveria ser nil")
	}
}

type stubNotificationStore struct {
	items   []Notification
	readErr error
	marked  int64
}

func (s *stubNotificationStore) ListByUser(ctx context.Context, userID int64) ([]Notification, error) {
	return s.items, nil
}

func (s *stubNotificationStore) MarkRead(ctx context.Context, userID, notificationID int64) error {
	s.marked = notificationID
	return s.readErr
}

func (s *stubNotificationStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	count := int64(0)
	for _, n := range s.items {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func TestServiceMarkReadPropagatesNotFound(t *testing.T) {
	svc := NewService(&stubNotificationStore{readErr: ErrNotFound})

	if err := svc.MarkRead(context.Background(), 1, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, veio %v", err)
	}
}

func TestServiceCountUnread(t *testing.T) {
	svc := NewService(&stubNotificationStore{items: []Notification{
		{ID: 1, IsRead: false},
		{ID: 2, IsRead: true},
		{ID: 3, IsRead: false},
	}})

	count, err := svc.CountUnread(context.Background(), 1)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if count != 2 {
		t.Errorf("esperado 2 não lidas, veio %d", count)
	}
}
