package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"growskill/internal/util"
	"growskill/pkg/domain"
)

// HomeView is the catalog screen.
type HomeView struct {
	Courses  []domain.Course
	LoggedIn bool
	User     domain.User
}

// Home loads the published catalog and the login state together. The
// catalog needs no authentication. A catalog failure still returns the
// login state alongside a notice.
func (a *App) Home(ctx context.Context) (HomeView, error) {
	var view HomeView
	// No shared context: a catalog failure must not cancel the session read.
	var g errgroup.Group
	g.Go(func() error {
		courses, err := a.api.PublishedCourses(ctx)
		if err != nil {
			return err
		}
		view.Courses = courses
		return nil
	})
	g.Go(func() error {
		sess, err := a.session.Current(ctx)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("read session failed", "err", err)
			return nil
		}
		view.LoggedIn = !sess.Anonymous()
		view.User = sess.User
		return nil
	})
	if err := g.Wait(); err != nil {
		return view, notice("Error", "Could not load courses.", err)
	}
	return view, nil
}

// SelectCourse is navigation from the catalog into a course. Without a
// stored token no request is sent.
func (a *App) SelectCourse(ctx context.Context, courseID string) (*CourseDetailView, error) {
	if !a.session.LoggedIn(ctx) {
		return nil, loginRequired("Please login to view course details.")
	}
	return a.LoadCourseDetail(ctx, courseID)
}
