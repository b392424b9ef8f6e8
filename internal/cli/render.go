package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"growskill/internal/app"
	"growskill/pkg/domain"
)

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "learner"
	}
	return name
}

func formatPrice(price float64) string {
	if price == 0 {
		return "Free"
	}
	return "$" + strconv.FormatFloat(price, 'f', -1, 64)
}

func renderUser(w io.Writer, u domain.User) {
	fmt.Fprintf(w, "Name:  %s\n", displayName(u.Name))
	fmt.Fprintf(w, "Email: %s\n", u.Email)
	if u.Role != "" {
		fmt.Fprintf(w, "Role:  %s\n", u.Role)
	}
	if u.PhotoURL != "" {
		fmt.Fprintf(w, "Photo: %s\n", u.PhotoURL)
	}
}

func renderCourseList(w io.Writer, courses []domain.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(w, "No courses available.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATOR\tSTUDENTS\tPRICE")
	for _, c := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Title, c.CreatorName(), c.EnrolledCount(), formatPrice(c.Price))
	}
	_ = tw.Flush()
}

func renderCourseDetail(w io.Writer, v *app.CourseDetailView) {
	c := v.Course
	fmt.Fprintln(w, c.Title)
	if c.Subtitle != "" {
		fmt.Fprintln(w, c.Subtitle)
	}
	meta := []string{"By " + c.CreatorName(), fmt.Sprintf("%d students", c.EnrolledCount()), formatPrice(c.Price)}
	if c.Level != "" {
		meta = append(meta, c.Level)
	}
	fmt.Fprintln(w, strings.Join(meta, " | "))
	if desc := v.Description(); desc != "" {
		fmt.Fprintf(w, "\n%s\n", desc)
	}
	if preview, ok := v.PreviewLecture(); ok {
		fmt.Fprintf(w, "\nPreview: %s", c.LectureTitle(0))
		if preview.VideoURL != "" {
			fmt.Fprintf(w, " (%s)", preview.VideoURL)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "\nLectures:")
	rows := v.LectureRows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "  No lectures yet.")
	}
	for _, row := range rows {
		mark := ""
		if row.Locked {
			mark = "  [locked]"
		}
		fmt.Fprintf(w, "  %d. %s%s\n", row.Number, row.Title, mark)
	}
	fmt.Fprintln(w)
	if v.CanContinue() {
		fmt.Fprintf(w, "Purchased. Run `growskill progress %s` to continue.\n", c.ID)
		return
	}
	fmt.Fprintf(w, "Not purchased. Run `growskill checkout %s` to buy this course for %s.\n", c.ID, formatPrice(c.Price))
}

func renderProgress(w io.Writer, t *app.Tracker) {
	fmt.Fprintln(w, t.Course().Title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range t.Rows() {
		status := "Not Viewed"
		if row.Viewed {
			status = "Viewed"
		}
		if !row.HasVideo {
			status += " (No video available)"
		}
		fmt.Fprintf(tw, "  %d. %s\t%s\t%s\n", row.Number, row.Title, row.ID, status)
	}
	_ = tw.Flush()
	rows := t.Rows()
	fmt.Fprintf(w, "\nProgress: %d/%d lectures viewed\n", t.ViewedCount(), len(rows))
	fmt.Fprintf(w, "[%s]  growskill toggle-complete %s\n", t.ToggleAction().Label(), t.CourseID())
	if t.AllViewed() {
		fmt.Fprintf(w, "[Download Certificate]  growskill certificate %s\n", t.CourseID())
		fmt.Fprintf(w, "[Interview Preparation]  growskill interview %s\n", t.CourseID())
		return
	}
	fmt.Fprintln(w, "Watch every lecture to unlock the certificate and interview preparation.")
}
