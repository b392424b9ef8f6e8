package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"growskill/internal/util"
	"growskill/pkg/domain"
)

// Action is the mutation the completion toggle issues next.
type Action int

const (
	ActionMarkComplete Action = iota
	ActionMarkIncomplete
)

// Label is the toggle button text.
func (a Action) Label() string {
	if a == ActionMarkIncomplete {
		return "Mark as Incomplete"
	}
	return "Mark as Completed"
}

// ProgressRow is one lecture on the progress screen.
type ProgressRow struct {
	Number   int
	ID       string
	Title    string
	Viewed   bool
	HasVideo bool
}

// Tracker is the per-screen progress state for one purchased course. It
// owns the viewed set and the last fetched explicit completion flag. All
// in-flight calls are cancelled by Close and their results discarded.
type Tracker struct {
	app      *App
	courseID string

	viewCtx context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	closed    bool
	course    domain.Course
	viewed    domain.ViewedSet
	completed bool
	pending   map[string]struct{}
}

// ContinueCourse opens the tracker from a loaded detail view. It refuses
// unless the view reports the course as purchased.
func (a *App) ContinueCourse(ctx context.Context, view *CourseDetailView) (*Tracker, error) {
	if !view.CanContinue() {
		return nil, notice("Error", "Purchase this course to continue.", ErrNotPurchased)
	}
	return a.OpenProgress(ctx, view.Course.ID)
}

// OpenProgress fetches the course progress and returns a tracker for it.
func (a *App) OpenProgress(ctx context.Context, courseID string) (*Tracker, error) {
	viewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &Tracker{
		app:      a,
		courseID: courseID,
		viewCtx:  viewCtx,
		cancel:   cancel,
		viewed:   domain.ViewedSet{},
		pending:  make(map[string]struct{}),
	}
	if err := t.Refresh(ctx); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// Close cancels in-flight calls. Later results are discarded.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
}

func (t *Tracker) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// CourseID is the tracked course.
func (t *Tracker) CourseID() string { return t.courseID }

// Course returns the course details from the last fetch.
func (t *Tracker) Course() domain.Course {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.course
}

// Lectures returns the ordered lectures of the course.
func (t *Tracker) Lectures() []domain.Lecture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Lecture(nil), t.course.Lectures...)
}

// Rows lists lectures with their viewed state.
func (t *Tracker) Rows() []ProgressRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]ProgressRow, 0, len(t.course.Lectures))
	for i, l := range t.course.Lectures {
		rows = append(rows, ProgressRow{
			Number:   i + 1,
			ID:       l.ID,
			Title:    t.course.LectureTitle(i),
			Viewed:   t.viewed.Has(l.ID),
			HasVideo: l.VideoURL != "",
		})
	}
	return rows
}

// IsViewed reports whether a lecture has a viewed record.
func (t *Tracker) IsViewed(lectureID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewed.Has(lectureID)
}

// AllViewed is recomputed from the lectures and the viewed set on every call.
func (t *Tracker) AllViewed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.AllViewed(t.course.Lectures, t.viewed)
}

// ViewedCount returns how many lectures are viewed.
func (t *Tracker) ViewedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.ViewedCount(t.course.Lectures, t.viewed)
}

// Completed is the explicit completion flag as last known. It can disagree
// with AllViewed.
func (t *Tracker) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// ToggleAction offers the opposite of the explicit flag.
func (t *Tracker) ToggleAction() Action {
	if t.Completed() {
		return ActionMarkIncomplete
	}
	return ActionMarkComplete
}

// Refresh re-fetches lectures, viewed records and the completion flag.
func (t *Tracker) Refresh(ctx context.Context) error {
	if t.isClosed() {
		return ErrViewClosed
	}
	token, err := t.app.requireToken(ctx, "")
	if err != nil {
		return err
	}
	callCtx, done := t.callContext(ctx)
	defer done()
	progress, err := t.app.api.CourseProgress(callCtx, token, t.courseID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrViewClosed
	}
	if err != nil {
		util.LoggerFromContext(ctx).Warn("load progress failed", "course_id", t.courseID, "err", err)
		return notice("Error", "Could not load course progress.", err)
	}
	t.course = progress.Course
	if t.course.ID == "" {
		t.course.ID = t.courseID
	}
	t.viewed = domain.NewViewedSet(progress.Progress)
	t.completed = progress.Completed
	return nil
}

// PlaybackFinished reports that a lecture's video played to the end. For a
// lecture not yet viewed, and with no view already in flight, exactly one
// view is recorded. The local set changes only after the backend
// acknowledges; on failure progress is fetched again to reconcile. It
// reports whether a request was sent.
func (t *Tracker) PlaybackFinished(ctx context.Context, lectureID string) (bool, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false, ErrViewClosed
	}
	if !t.hasLecture(lectureID) {
		t.mu.Unlock()
		return false, fmt.Errorf("lecture %q is not part of course %q", lectureID, t.courseID)
	}
	if t.viewed.Has(lectureID) {
		t.mu.Unlock()
		return false, nil
	}
	if _, inFlight := t.pending[lectureID]; inFlight {
		t.mu.Unlock()
		return false, nil
	}
	t.pending[lectureID] = struct{}{}
	t.mu.Unlock()

	err := t.recordView(ctx, lectureID)

	t.mu.Lock()
	delete(t.pending, lectureID)
	if t.closed {
		t.mu.Unlock()
		return true, ErrViewClosed
	}
	if err == nil {
		t.viewed.Add(lectureID)
		t.mu.Unlock()
		return true, nil
	}
	t.mu.Unlock()

	util.LoggerFromContext(ctx).Warn("record lecture view failed", "course_id", t.courseID, "lecture_id", lectureID, "err", err)
	if refreshErr := t.Refresh(ctx); refreshErr != nil && !errors.Is(refreshErr, ErrViewClosed) {
		util.LoggerFromContext(ctx).Warn("reconcile progress failed", "course_id", t.courseID, "err", refreshErr)
	}
	var n *Notice
	if errors.As(err, &n) {
		return true, n
	}
	return true, notice("Error", "Could not update lecture progress.", err)
}

func (t *Tracker) recordView(ctx context.Context, lectureID string) error {
	token, err := t.app.requireToken(ctx, "")
	if err != nil {
		return err
	}
	callCtx, done := t.callContext(ctx)
	defer done()
	return t.app.api.RecordLectureView(callCtx, token, t.courseID, lectureID)
}

// ToggleCompletion issues the action offered by ToggleAction and, on
// success, stores the new explicit flag.
func (t *Tracker) ToggleCompletion(ctx context.Context) (Action, error) {
	action := t.ToggleAction()
	failure := "Failed to mark course as completed"
	if action == ActionMarkIncomplete {
		failure = "Failed to mark course as incomplete"
	}
	if t.isClosed() {
		return action, ErrViewClosed
	}
	token, err := t.app.requireToken(ctx, "")
	if err != nil {
		return action, err
	}
	callCtx, done := t.callContext(ctx)
	defer done()
	if action == ActionMarkComplete {
		err = t.app.api.MarkComplete(callCtx, token, t.courseID)
	} else {
		err = t.app.api.MarkIncomplete(callCtx, token, t.courseID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return action, ErrViewClosed
	}
	if err != nil {
		return action, notice("Error", failure, err)
	}
	t.completed = action == ActionMarkComplete
	return action, nil
}

// ToggleMessage is the confirmation shown after a successful toggle.
func ToggleMessage(action Action) string {
	if action == ActionMarkIncomplete {
		return "Course marked as incomplete"
	}
	return "Course marked as completed"
}

func (t *Tracker) hasLecture(lectureID string) bool {
	for _, l := range t.course.Lectures {
		if l.ID == lectureID {
			return true
		}
	}
	return false
}

// callContext derives a context that ends with either the caller's ctx or
// the tracker's lifetime.
func (t *Tracker) callContext(ctx context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	if t.viewCtx.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(t.viewCtx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// requireFinished gates the certificate and interview prep actions.
func (t *Tracker) requireFinished(action string) (domain.Course, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.Course{}, ErrViewClosed
	}
	if !domain.AllViewed(t.course.Lectures, t.viewed) {
		return domain.Course{}, notice("Error", "Watch every lecture to unlock "+action+".", ErrCourseNotFinished)
	}
	return t.course, nil
}
