package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"growskill/internal/apiclient"
	"growskill/internal/backendtest"
	"growskill/pkg/domain"
	"growskill/pkg/store"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "secret"
)

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *recordingOpener) Open(_ context.Context, url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return o.err
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

type fakeSharer struct {
	paths []string
	err   error
}

func (s *fakeSharer) Share(_ context.Context, localPath, _ string) (string, error) {
	s.paths = append(s.paths, localPath)
	if s.err != nil {
		return "", s.err
	}
	return "https://share.example.com/certificate.pdf", nil
}

type testEnv struct {
	app      *App
	srv      *backendtest.Server
	opener   *recordingOpener
	sessions store.SessionStore
	docsDir  string
}

func threeLectureCourse() domain.Course {
	return domain.Course{
		ID:          "c1",
		Title:       "Go Fundamentals",
		Description: "<p>Learn <b>Go</b></p><ul><li>types</li><li>channels</li></ul>",
		Price:       499,
		Lectures: []domain.Lecture{
			{ID: "l1", Title: "Intro", VideoURL: "https://cdn.example.com/l1.mp4", PreviewFree: true},
			{ID: "l2", Title: "Types", VideoURL: "https://cdn.example.com/l2.mp4"},
			{ID: "l3", VideoURL: "https://cdn.example.com/l3.mp4"},
		},
	}
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	srv := backendtest.New(t)
	srv.AddUser("Ada", testEmail, testPassword)
	srv.AddCourse(threeLectureCourse())

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second, RetryWait: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	env := &testEnv{
		srv:      srv,
		opener:   &recordingOpener{},
		sessions: store.NewMemoryStore(),
		docsDir:  t.TempDir(),
	}
	cfg := Config{
		API:          api,
		Sessions:     env.sessions,
		DocumentsDir: env.docsDir,
		Opener:       env.opener,
		PollInterval: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	env.app = a
	return env
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	if _, err := e.app.Login(context.Background(), LoginInput{Email: testEmail, Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func requireNotice(t *testing.T, err error, message string) *Notice {
	t.Helper()
	n, ok := AsNotice(err)
	if !ok {
		t.Fatalf("expected notice %q, got %v", message, err)
	}
	if message != "" && n.Message != message {
		t.Fatalf("notice message = %q, want %q", n.Message, message)
	}
	return n
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without api client")
	}
	api, _ := apiclient.New(apiclient.Config{BaseURL: "http://localhost"})
	if _, err := New(Config{API: api}); err == nil {
		t.Fatalf("expected error without session store")
	}
	if _, err := New(Config{API: api, Sessions: store.NewMemoryStore()}); err == nil {
		t.Fatalf("expected error without documents dir")
	}
}

func TestNoticeUnwrap(t *testing.T) {
	err := error(notice("Error", "Could not initiate checkout.", ErrCheckoutFailed))
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected notice to wrap ErrCheckoutFailed")
	}
	if err.Error() != "Error: Could not initiate checkout." {
		t.Fatalf("error text = %q", err.Error())
	}
}
