package app

import (
	"context"
	"strings"

	"growskill/internal/util"
	"growskill/pkg/domain"
)

// DetailState is the terminal display state of a course detail load.
type DetailState int

const (
	StateLoaded DetailState = iota
	StateNotFound
)

func (s DetailState) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "not_found"
}

// CourseDetailView is one load of the course detail screen. Purchased is
// only valid for the lifetime of the view.
type CourseDetailView struct {
	State     DetailState
	Course    domain.Course
	Purchased bool
}

// LectureRow is one entry of the lecture list.
type LectureRow struct {
	Number  int
	Title   string
	Locked  bool
	Preview bool
}

// CanContinue reports whether the progress tracker entry point is shown.
func (v *CourseDetailView) CanContinue() bool {
	return v != nil && v.State == StateLoaded && v.Purchased
}

// Description renders the HTML course description as plain text.
func (v *CourseDetailView) Description() string {
	if v == nil {
		return ""
	}
	return util.HTMLToText(v.Course.Description)
}

// PreviewLecture is the first lecture, shown whether or not the course was
// bought.
func (v *CourseDetailView) PreviewLecture() (domain.Lecture, bool) {
	if v == nil {
		return domain.Lecture{}, false
	}
	return v.Course.PreviewLecture()
}

// LectureRows lists lectures in backend order. Every row is locked until
// the course is purchased.
func (v *CourseDetailView) LectureRows() []LectureRow {
	if v == nil {
		return nil
	}
	rows := make([]LectureRow, 0, len(v.Course.Lectures))
	for i := range v.Course.Lectures {
		rows = append(rows, LectureRow{
			Number:  i + 1,
			Title:   v.Course.LectureTitle(i),
			Locked:  !v.Purchased,
			Preview: i == 0,
		})
	}
	return rows
}

// LoadCourseDetail fetches the course and the purchase status in one
// authenticated request. Any failure leaves the view in StateNotFound and
// returns a load-failure notice; there is no retry beyond the transport's.
func (a *App) LoadCourseDetail(ctx context.Context, courseID string) (*CourseDetailView, error) {
	courseID = strings.TrimSpace(courseID)
	token, err := a.requireToken(ctx, "Please login to view course details.")
	if err != nil {
		return nil, err
	}
	course, purchased, err := a.api.CourseDetailWithStatus(ctx, token, courseID)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("load course detail failed", "course_id", courseID, "err", err)
		return &CourseDetailView{State: StateNotFound}, notice("Error", "Could not load course details.", err)
	}
	return &CourseDetailView{State: StateLoaded, Course: course, Purchased: purchased}, nil
}
