package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/formdrop/internal/app/notify"
	"github.com/dalemusser/formdrop/internal/domain/models"
)

type memStore struct {
	subs []models.Submission
	err  error
}

func (m *memStore) Append(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if m.err != nil {
		return models.Submission{}, m.err
	}
	sub.ID = len(m.subs) + 1
	m.subs = append(m.subs, sub)
	return sub, nil
}

type recordingNotifier struct {
	calls  []models.Submission
	result notify.Result
	panics bool
}

func (r *recordingNotifier) Notify(ctx context.Context, sub models.Submission) notify.Result {
	r.calls = append(r.calls, sub)
	if r.panics {
		panic("mailer exploded")
	}
	return r.result
}

func newTestService(store Appender, n Notifier) *Service {
	s := NewService(nil, store, n, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestSubmit_Accepted(t *testing.T) {
	store := &memStore{}
	n := &recordingNotifier{result: notify.Result{Status: notify.StatusSent}}
	svc := newTestService(store, n)

	out, err := svc.Submit(context.Background(), Payload{"name": "Ada", "email": "ada@x.com", "message": "Hello"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := models.Submission{ID: 1, Name: "Ada", Email: "ada@x.com", Phone: "", Message: "Hello", Timestamp: "2024-05-01T09:30:00.000Z"}
	if out.Submission != want {
		t.Errorf("Submission = %+v\nwant %+v", out.Submission, want)
	}
	if out.Strategy != "canonical" || out.Notification.Status != notify.StatusSent {
		t.Errorf("Outcome = %+v", out)
	}
	if len(n.calls) != 1 || n.calls[0].ID != 1 {
		t.Errorf("notifier calls = %+v", n.calls)
	}
}

func TestSubmit_Invalid(t *testing.T) {
	store := &memStore{}
	n := &recordingNotifier{}
	svc := newTestService(store, n)

	for _, p := range []Payload{
		{"name": "", "email": "a@b.com", "message": "hi"},
		{"name": "   ", "email": "a@b.com", "message": "hi"},
		{"name": "A", "email": "a@b.com"},
		{},
	} {
		_, err := svc.Submit(context.Background(), p)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Submit(%v) err = %v, want ValidationError", p, err)
		}
	}
	if len(store.subs) != 0 || len(n.calls) != 0 {
		t.Error("invalid submissions reached the store or notifier")
	}
}

func TestSubmit_StoreFailure(t *testing.T) {
	store := &memStore{err: &StoreError{Op: "file.write", Kind: KindWrite, Path: "messages.json", Err: errors.New("disk full")}}
	n := &recordingNotifier{}
	svc := newTestService(store, n)

	_, err := svc.Submit(context.Background(), Payload{"name": "Ada", "email": "ada@x.com", "message": "Hello"})
	if !IsKind(err, KindWrite) {
		t.Fatalf("err = %v, want write StoreError", err)
	}
	// The admin still gets the submission by mail.
	if len(n.calls) != 1 || n.calls[0].ID != 0 || n.calls[0].Name != "Ada" {
		t.Errorf("notifier calls = %+v, want one unsaved submission", n.calls)
	}
}

func TestSubmit_NotifierPanicIsDegraded(t *testing.T) {
	store := &memStore{}
	n := &recordingNotifier{panics: true}
	svc := newTestService(store, n)

	out, err := svc.Submit(context.Background(), Payload{"name": "Ada", "email": "ada@x.com", "message": "Hello"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Submission.ID != 1 || len(store.subs) != 1 {
		t.Errorf("outcome = %+v, stored %d", out, len(store.subs))
	}
	if out.Notification.Status != notify.StatusFailed || out.Notification.Err == nil {
		t.Errorf("Notification = %+v, want failed", out.Notification)
	}
}

func TestSubmit_NotifyFailureIsDegraded(t *testing.T) {
	store := &memStore{}
	n := &recordingNotifier{result: notify.Result{Status: notify.StatusFailed, Err: errors.New("smtp down")}}
	svc := newTestService(store, n)

	out, err := svc.Submit(context.Background(), Payload{"name": "Ada", "email": "ada@x.com", "message": "Hello"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Notification.Status != notify.StatusFailed || len(store.subs) != 1 {
		t.Errorf("outcome = %+v, stored %d", out, len(store.subs))
	}
}

func TestSubmit_SequentialIDs(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, nil)
	for i := 1; i <= 5; i++ {
		out, err := svc.Submit(context.Background(), Payload{"name": "N", "email": "e@x.com", "message": "m"})
		if err != nil {
			t.Fatal(err)
		}
		if out.Submission.ID != i {
			t.Errorf("ID = %d, want %d", out.Submission.ID, i)
		}
	}
}

func TestStoreError(t *testing.T) {
	inner := errors.New("boom")
	err := &StoreError{Op: "file.read", Kind: KindCorrupt, Path: "m.json", Err: inner}
	if err.Error() != "file.read: corrupt (path=m.json): boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap lost the cause")
	}
}
