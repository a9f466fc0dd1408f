package contact

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/app/notify"
	"github.com/dalemusser/formdrop/internal/app/store"
	"github.com/dalemusser/formdrop/internal/domain/models"
	"github.com/dalemusser/formdrop/middleware"
	"github.com/dalemusser/formdrop/pantry/ratelimit"
	wtest "github.com/dalemusser/formdrop/pantry/testing"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type stubNotifier struct {
	result notify.Result
	calls  int
	panics bool
}

func (n *stubNotifier) Notify(ctx context.Context, sub models.Submission) notify.Result {
	n.calls++
	if n.panics {
		panic("mailer exploded")
	}
	return n.result
}

type fixture struct {
	handler  http.Handler
	store    *store.FileStore
	notifier *stubNotifier
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	return newFixtureAt(t, filepath.Join(t.TempDir(), "messages.json"), opts)
}

func newFixtureAt(t *testing.T, path string, opts Options) *fixture {
	t.Helper()
	st := store.NewFileStore(path)
	n := &stubNotifier{result: notify.Result{Status: notify.StatusSent}}
	svc := intake.NewService(nil, st, n, zap.NewNop())

	r := chi.NewRouter()
	r.Use(middleware.LimitBodySize(1 << 10))
	NewHandler(svc, st, nil).Mount(r, opts)
	return &fixture{handler: r, store: st, notifier: n}
}

func (f *fixture) stored(t *testing.T) []models.Submission {
	t.Helper()
	subs, err := f.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return subs
}

func decode(t *testing.T, resp *wtest.Response) Response {
	t.Helper()
	var out Response
	resp.ContentTypeJSON().JSON(&out)
	return out
}

func TestSubmit_Accepted(t *testing.T) {
	for _, path := range []string{"/submit-message", "/api/contact"} {
		t.Run(path, func(t *testing.T) {
			f := newFixture(t, Options{})
			resp := wtest.NewRecorder(t).Post(path).
				JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
				Run(f.handler)

			resp.StatusOK()
			if got := decode(t, resp); got != (Response{Success: true, Message: MsgThanks}) {
				t.Errorf("response = %+v", got)
			}

			subs := f.stored(t)
			if len(subs) != 1 {
				t.Fatalf("stored %d, want 1", len(subs))
			}
			s := subs[0]
			if s.ID != 1 || s.Name != "Ada" || s.Email != "ada@x.com" || s.Phone != "" || s.Message != "Hello" {
				t.Errorf("stored %+v", s)
			}
			if _, err := time.Parse(models.TimestampLayout, s.Timestamp); err != nil {
				t.Errorf("timestamp %q: %v", s.Timestamp, err)
			}
			if f.notifier.calls != 1 {
				t.Errorf("notifier calls = %d, want 1", f.notifier.calls)
			}
		})
	}
}

func TestSubmit_Invalid(t *testing.T) {
	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/submit-message", http.StatusOK, "Name, Email, and Message required"},
		{"/api/contact", http.StatusBadRequest, "Name, email, and message are required"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newFixture(t, Options{})
			resp := wtest.NewRecorder(t).Post(tt.path).
				JSON(map[string]string{"name": "", "email": "a@b.com", "message": "hi"}).
				Run(f.handler)

			resp.Status(tt.status)
			if got := decode(t, resp); got != (Response{Error: tt.msg}) {
				t.Errorf("response = %+v", got)
			}
			if n := len(f.stored(t)); n != 0 {
				t.Errorf("stored %d, want 0", n)
			}
			if f.notifier.calls != 0 {
				t.Error("notifier should not run for a rejected submission")
			}
		})
	}
}

func TestSubmit_Whitespace(t *testing.T) {
	f := newFixture(t, Options{})
	resp := wtest.NewRecorder(t).Post("/api/contact").
		Form(url.Values{"name": {"Ada"}, "email": {"   "}, "message": {"hi"}}).
		Run(f.handler)
	resp.Status(http.StatusBadRequest)
}

func TestSubmit_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		build func(rr *wtest.RecorderRequest) *wtest.RecorderRequest
	}{
		{"json canonical", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "phone": "555", "message": "Hello"})
		}},
		{"json bracket", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.JSON(map[string]string{
				"form_fields[name]": "Ada", "form_fields[email]": "ada@x.com",
				"form_fields[field_6046966]": "555", "form_fields[message]": "Hello",
			})
		}},
		{"json nested object", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.JSON(map[string]any{"form_fields": map[string]string{
				"name": "Ada", "email": "ada@x.com", "field_6046966": "555", "message": "Hello",
			}})
		}},
		{"json top-level array", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.JSON([]map[string]string{{"name": "Ada", "email": "ada@x.com", "phone": "555", "message": "Hello"}})
		}},
		{"json mixed schemes", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.JSON(map[string]string{
				"form_fields[name]": "Ada", "form_fields[email]": "ada@x.com",
				"form_fields[message]": "Hello", "phone": "555",
			})
		}},
		{"form canonical", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.Form(url.Values{"name": {"Ada"}, "email": {"ada@x.com"}, "phone": {"555"}, "message": {"Hello"}})
		}},
		{"form bracket", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.Form(url.Values{
				"form_fields[name]": {"Ada"}, "form_fields[email]": {"ada@x.com"},
				"form_fields[field_6046966]": {"555"}, "form_fields[message]": {"Hello"},
			})
		}},
		{"form indexed", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.Form(url.Values{
				"form_fields[0][name]": {"Ada"}, "form_fields[0][email]": {"ada@x.com"},
				"form_fields[0][phone]": {"555"}, "form_fields[0][message]": {"Hello"},
			})
		}},
		{"multipart", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.Multipart([][2]string{
				{"form_fields[name]", "Ada"}, {"form_fields[email]", "ada@x.com"},
				{"form_fields[field_6046966]", "555"}, {"form_fields[message]", "Hello"},
			})
		}},
		{"untyped json", func(rr *wtest.RecorderRequest) *wtest.RecorderRequest {
			return rr.BodyString(`{"name":"Ada","email":"ada@x.com","phone":"555","message":"Hello"}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			resp := tt.build(wtest.NewRecorder(t).Post("/submit-message")).Run(f.handler)
			resp.StatusOK().JSONPathEquals("success", true)

			subs := f.stored(t)
			if len(subs) != 1 {
				t.Fatalf("stored %d, want 1", len(subs))
			}
			got := subs[0]
			got.Timestamp = ""
			want := models.Submission{ID: 1, Name: "Ada", Email: "ada@x.com", Phone: "555", Message: "Hello"}
			if got != want {
				t.Errorf("stored %+v, want %+v", got, want)
			}
		})
	}
}

func TestSubmit_MalformedJSONIsInvalid(t *testing.T) {
	f := newFixture(t, Options{})
	wtest.NewRecorder(t).Post("/api/contact").
		Header("Content-Type", "application/json").
		BodyString(`{"name": "Ada",`).
		Run(f.handler).
		Status(http.StatusBadRequest).
		JSONPathEquals("error", intake.MsgRequiredAPI)
}

func TestSubmit_StoreFailure(t *testing.T) {
	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/submit-message", http.StatusOK, MsgSubmitFailed},
		{"/api/contact", http.StatusInternalServerError, MsgAPIFailed},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newFixtureAt(t, filepath.Join(t.TempDir(), "missing", "messages.json"), Options{})
			resp := wtest.NewRecorder(t).Post(tt.path).
				JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
				Run(f.handler)
			resp.Status(tt.status)
			if got := decode(t, resp); got != (Response{Error: tt.msg}) {
				t.Errorf("response = %+v", got)
			}
			if f.notifier.calls != 1 {
				t.Errorf("notifier calls = %d, want 1 for the unsaved submission", f.notifier.calls)
			}
		})
	}
}

func TestSubmit_NotifyFailureStillSucceeds(t *testing.T) {
	f := newFixture(t, Options{})
	f.notifier.result = notify.Result{Status: notify.StatusFailed, Err: errors.New("smtp down")}

	wtest.NewRecorder(t).Post("/api/contact").
		JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
		Run(f.handler).
		StatusOK().
		JSONPathEquals("success", true)

	if n := len(f.stored(t)); n != 1 {
		t.Errorf("stored %d, want 1", n)
	}
}

// panicStore blows up inside the pipeline before anything is stored.
type panicStore struct{}

func (panicStore) Append(ctx context.Context, sub models.Submission) (models.Submission, error) {
	panic("disk driver exploded")
}

func (panicStore) List(ctx context.Context) ([]models.Submission, error) { return nil, nil }

func TestSubmit_PanicRecovered(t *testing.T) {
	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/submit-message", http.StatusOK, MsgSubmitFailed},
		{"/api/contact", http.StatusInternalServerError, MsgAPIFailed},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			svc := intake.NewService(nil, panicStore{}, &stubNotifier{}, zap.NewNop())
			r := chi.NewRouter()
			NewHandler(svc, panicStore{}, nil).Mount(r, Options{})

			resp := wtest.NewRecorder(t).Post(tt.path).
				JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
				Run(r)
			resp.Status(tt.status)
			if got := decode(t, resp); got != (Response{Error: tt.msg}) {
				t.Errorf("response = %+v", got)
			}
		})
	}
}

func TestSubmit_NotifierPanicStillSucceeds(t *testing.T) {
	for _, path := range []string{"/submit-message", "/api/contact"} {
		t.Run(path, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.notifier.panics = true
			resp := wtest.NewRecorder(t).Post(path).
				JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
				Run(f.handler)
			resp.StatusOK()
			if got := decode(t, resp); got != (Response{Success: true, Message: MsgThanks}) {
				t.Errorf("response = %+v", got)
			}
			if n := len(f.stored(t)); n != 1 {
				t.Errorf("stored %d, want 1", n)
			}
		})
	}
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	f := newFixture(t, Options{})
	big := `{"name":"Ada","email":"ada@x.com","message":"` + strings.Repeat("x", 2<<10) + `"}`
	wtest.NewRecorder(t).Post("/api/contact").
		Header("Content-Type", "application/json").
		BodyString(big).
		Run(f.handler).
		Status(http.StatusInternalServerError).
		JSONPathEquals("error", MsgAPIFailed)

	if n := len(f.stored(t)); n != 0 {
		t.Errorf("stored %d, want 0", n)
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	limiter := ratelimit.NewKeyLimiter(0, 1, time.Hour)
	t.Cleanup(limiter.Stop)
	logger, logs := wtest.ObservedLogger(zap.NewAtomicLevelAt(zap.InfoLevel))

	st := store.NewFileStore(filepath.Join(t.TempDir(), "messages.json"))
	svc := intake.NewService(nil, st, &stubNotifier{result: notify.Result{Status: notify.StatusSent}}, zap.NewNop())
	r := chi.NewRouter()
	NewHandler(svc, st, logger).Mount(r, Options{Limiter: limiter})

	rec := wtest.NewRecorder(t)
	body := map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}
	const ada, grace = "198.51.100.7:4100", "203.0.113.9:5200"

	rec.Post("/api/contact").RemoteAddr(ada).JSON(body).Run(r).StatusOK()

	resp := rec.Post("/api/contact").RemoteAddr(ada).JSON(body).Run(r)
	resp.Status(http.StatusTooManyRequests).JSONPathEquals("error", MsgAPIFailed)
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	// Both routes spend the same bucket.
	rec.Post("/submit-message").RemoteAddr(ada).JSON(body).Run(r).
		StatusOK().
		JSONPathEquals("success", false).
		JSONPathEquals("error", MsgSubmitFailed)

	// Another client has its own bucket.
	rec.Post("/submit-message").RemoteAddr(grace).JSON(body).Run(r).
		StatusOK().
		JSONPathEquals("success", true)

	subs, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Errorf("stored %d, want 2", len(subs))
	}
	if n := logs.FilterMessage("submission rate limited").Len(); n != 2 {
		t.Errorf("rate limited logs = %d, want 2", n)
	}
}

func TestPreflight(t *testing.T) {
	f := newFixture(t, Options{})
	resp := wtest.NewRecorder(t).Options("/api/contact").
		Header("Origin", "https://site.example").
		Header("Access-Control-Request-Method", http.MethodPost).
		Header("Access-Control-Request-Headers", "Content-Type").
		Run(f.handler)

	resp.StatusOK().HeaderEquals("Access-Control-Allow-Origin", "*")
	if got := strings.TrimSpace(resp.String()); got != "{}" {
		t.Errorf("body = %q, want {}", got)
	}
}

func TestContactPost_CORSHeader(t *testing.T) {
	f := newFixture(t, Options{})
	wtest.NewRecorder(t).Post("/api/contact").
		Header("Origin", "https://site.example").
		JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
		Run(f.handler).
		StatusOK().
		HeaderEquals("Access-Control-Allow-Origin", "*")
}

func TestMessages_OrderAndEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	rec := wtest.NewRecorder(t)

	resp := rec.Get("/api/messages").Run(f.handler)
	resp.StatusOK().ContentTypeJSON()
	if got := strings.TrimSpace(resp.String()); got != "[]" {
		t.Errorf("empty list = %q, want []", got)
	}

	for _, name := range []string{"Ada", "Grace", "Edsger"} {
		rec.Post("/submit-message").
			JSON(map[string]string{"name": name, "email": "x@y.z", "message": "hi"}).
			Run(f.handler).StatusOK()
	}

	var subs []models.Submission
	rec.Get("/api/messages").Run(f.handler).StatusOK().JSON(&subs)
	if len(subs) != 3 {
		t.Fatalf("listed %d, want 3", len(subs))
	}
	for i, want := range []string{"Ada", "Grace", "Edsger"} {
		if subs[i].ID != i+1 || subs[i].Name != want {
			t.Errorf("subs[%d] = %+v", i, subs[i])
		}
	}
}

func TestMessages_Exports(t *testing.T) {
	f := newFixture(t, Options{})
	rec := wtest.NewRecorder(t)
	rec.Post("/api/contact").
		JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "=1+1"}).
		Run(f.handler).StatusOK()

	csv := rec.Get("/api/messages.csv").Run(f.handler)
	csv.StatusOK().
		HeaderContains("Content-Type", "text/csv").
		HeaderEquals("Content-Disposition", "attachment; filename=messages.csv")
	if !strings.HasPrefix(csv.String(), "id,name,email,phone,message,timestamp\r\n1,Ada,ada@x.com,,'=1+1,") {
		t.Errorf("csv = %q", csv.String())
	}

	xlsx := rec.Get("/api/messages.xlsx").Run(f.handler)
	xlsx.StatusOK().HeaderEquals("Content-Disposition", "attachment; filename=messages.xlsx")
	if !strings.HasPrefix(xlsx.String(), "PK") {
		t.Error("xlsx body is not a zip archive")
	}
}

func TestMessages_APIKey(t *testing.T) {
	f := newFixture(t, Options{APIKey: "s3cret"})
	rec := wtest.NewRecorder(t)

	for _, p := range []string{"/api/messages", "/api/messages.csv", "/api/messages.xlsx"} {
		rec.Get(p).Run(f.handler).Status(http.StatusUnauthorized)
	}
	rec.Get("/api/messages").Bearer("s3cret").Run(f.handler).StatusOK()
	rec.Get("/api/messages").Header("X-API-Key", "s3cret").Run(f.handler).StatusOK()

	// Submitting stays open.
	rec.Post("/api/contact").
		JSON(map[string]string{"name": "Ada", "email": "ada@x.com", "message": "Hello"}).
		Run(f.handler).StatusOK()
}
