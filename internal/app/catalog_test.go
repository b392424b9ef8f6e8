package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"growskill/internal/backendtest"
)

func TestHomeLoadsCatalogAnonymously(t *testing.T) {
	env := newTestEnv(t)
	view, err := env.app.Home(context.Background())
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if view.LoggedIn {
		t.Fatalf("expected anonymous home")
	}
	if len(view.Courses) != 1 || view.Courses[0].ID != "c1" {
		t.Fatalf("unexpected courses: %+v", view.Courses)
	}
	if got := env.srv.LastAuthorization(backendtest.EndpointCourses); got != "" {
		t.Fatalf("catalog must not be authenticated, got %q", got)
	}
}

func TestHomeCatalogFailureKeepsLoginState(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.srv.FailNext(backendtest.EndpointCourses, http.StatusInternalServerError, http.StatusInternalServerError)

	view, err := env.app.Home(context.Background())
	requireNotice(t, err, "Could not load courses.")
	if !view.LoggedIn || view.User.Email != testEmail {
		t.Fatalf("login state lost: %+v", view)
	}
}

func TestSelectCourseWithoutTokenSendsNoRequest(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		_, err := env.app.SelectCourse(context.Background(), "c1")
		if !errors.Is(err, ErrLoginRequired) {
			t.Fatalf("expected login required, got %v", err)
		}
		requireNotice(t, err, "Please login to view course details.")
	}
	if got := env.srv.Calls(backendtest.EndpointDetail); got != 0 {
		t.Fatalf("detail calls = %d, want 0", got)
	}
}

func TestSelectCourseWithTokenSendsExactlyOneRequest(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	for i := 1; i <= 3; i++ {
		view, err := env.app.SelectCourse(context.Background(), "c1")
		if err != nil {
			t.Fatalf("select course: %v", err)
		}
		if view.State != StateLoaded {
			t.Fatalf("state = %v", view.State)
		}
		if got := env.srv.Calls(backendtest.EndpointDetail); got != i {
			t.Fatalf("detail calls = %d, want %d", got, i)
		}
	}
}

func TestCourseDetailPurchaseGate(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	view, err := env.app.LoadCourseDetail(ctx, "c1")
	if err != nil {
		t.Fatalf("load detail: %v", err)
	}
	if view.Purchased || view.CanContinue() {
		t.Fatalf("unpurchased course must not offer continue")
	}
	preview, ok := view.PreviewLecture()
	if !ok || preview.ID != "l1" {
		t.Fatalf("preview lecture = %+v, %v", preview, ok)
	}
	rows := view.LectureRows()
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	for _, r := range rows {
		if !r.Locked {
			t.Fatalf("row %d must be locked", r.Number)
		}
	}
	if rows[2].Title != "Lecture 3" {
		t.Fatalf("default title = %q", rows[2].Title)
	}
	if desc := view.Description(); !strings.Contains(desc, "Learn Go") || !strings.Contains(desc, "- channels") {
		t.Fatalf("description = %q", desc)
	}
	if _, err := env.app.ContinueCourse(ctx, view); !errors.Is(err, ErrNotPurchased) {
		t.Fatalf("expected ErrNotPurchased, got %v", err)
	}
	if got := env.srv.Calls(backendtest.EndpointProgress); got != 0 {
		t.Fatalf("progress calls = %d, want 0", got)
	}

	env.srv.SetPurchased(testEmail, "c1", true)
	view, err = env.app.LoadCourseDetail(ctx, "c1")
	if err != nil {
		t.Fatalf("load detail: %v", err)
	}
	if !view.CanContinue() {
		t.Fatalf("purchased course must offer continue")
	}
	for _, r := range view.LectureRows() {
		if r.Locked {
			t.Fatalf("row %d must be unlocked", r.Number)
		}
	}
	tracker, err := env.app.ContinueCourse(ctx, view)
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	defer tracker.Close()
	if tracker.AllViewed() {
		t.Fatalf("continue is offered regardless of progress")
	}
}

func TestCourseDetailFailureIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	view, err := env.app.LoadCourseDetail(context.Background(), "missing")
	requireNotice(t, err, "Could not load course details.")
	if view == nil || view.State != StateNotFound || view.CanContinue() {
		t.Fatalf("unexpected view: %+v", view)
	}
	if got := env.srv.Calls(backendtest.EndpointDetail); got != 1 {
		t.Fatalf("detail calls = %d, want 1", got)
	}
}

func TestBeginCheckoutOpensURL(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	url, err := env.app.BeginCheckout(context.Background(), "c1")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	opened := env.opener.opened()
	if len(opened) != 1 || opened[0] != url || url == "" {
		t.Fatalf("opened = %v, url = %q", opened, url)
	}
}

func TestBeginCheckoutWithoutURLFails(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.srv.SetCheckoutURL("")
	ctx := context.Background()

	_, err := env.app.BeginCheckout(ctx, "c1")
	requireNotice(t, err, "Could not initiate checkout.")
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
	if len(env.opener.opened()) != 0 {
		t.Fatalf("opener must not be called")
	}
	view, err := env.app.LoadCourseDetail(ctx, "c1")
	if err != nil {
		t.Fatalf("load detail: %v", err)
	}
	if view.Purchased {
		t.Fatalf("purchase status must remain false")
	}
}

func TestBeginCheckoutRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.app.BeginCheckout(context.Background(), "c1"); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected login required, got %v", err)
	}
	if got := env.srv.Calls(backendtest.EndpointCheckout); got != 0 {
		t.Fatalf("checkout calls = %d, want 0", got)
	}
}

func TestWaitForPurchase(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	go func() {
		time.Sleep(30 * time.Millisecond)
		env.srv.SetPurchased(testEmail, "c1", true)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	view, err := env.app.WaitForPurchase(ctx, "c1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("wait for purchase: %v", err)
	}
	if !view.CanContinue() {
		t.Fatalf("expected purchased view")
	}
	if got := env.srv.Calls(backendtest.EndpointDetail); got < 2 {
		t.Fatalf("detail calls = %d, want polling", got)
	}
}

func TestWaitForPurchaseStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := env.app.WaitForPurchase(ctx, "c1", 10*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
