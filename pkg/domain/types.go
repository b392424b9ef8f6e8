package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
)

type User struct {
	ID              string   `json:"_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	PhotoURL        string   `json:"photoUrl,omitempty"`
	EnrolledCourses []Course `json:"enrollCourses,omitempty"`
}

type Creator struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// UnmarshalJSON accepts either a populated creator object or a bare id.
func (c *Creator) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = Creator{ID: id}
		return nil
	}
	type plain Creator
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Creator(p)
	return nil
}

// IDList is a list of references that the backend sends either as ids or as
// populated documents carrying an _id.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IDList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				return err
			}
			out = append(out, id)
			continue
		}
		var ref struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(item, &ref); err != nil {
			return err
		}
		out = append(out, ref.ID)
	}
	*l = out
	return nil
}

type Lecture struct {
	ID          string `json:"_id"`
	Title       string `json:"lectureTitle"`
	VideoURL    string `json:"videoUrl,omitempty"`
	PreviewFree bool   `json:"isPreviewFree,omitempty"`
}

type Course struct {
	ID               string    `json:"_id"`
	Title            string    `json:"courseTitle"`
	Subtitle         string    `json:"subTitle,omitempty"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	Level            string    `json:"courseLevel,omitempty"`
	Thumbnail        string    `json:"courseThumbnail,omitempty"`
	Price            float64   `json:"coursePrice,omitempty"`
	Creator          *Creator  `json:"creator,omitempty"`
	Lectures         []Lecture `json:"lectures,omitempty"`
	EnrolledStudents IDList    `json:"enrolledStudents,omitempty"`
	Published        bool      `json:"isPublished,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

// EnrolledCount returns the number of enrolled students.
func (c Course) EnrolledCount() int {
	return len(c.EnrolledStudents)
}

// CreatorName returns the creator's display name or "Unknown".
func (c Course) CreatorName() string {
	if c.Creator == nil || c.Creator.Name == "" {
		return "Unknown"
	}
	return c.Creator.Name
}

// LectureTitle returns the title of the lecture at index i, defaulting to
// "Lecture <i+1>" when the backend sent none.
func (c Course) LectureTitle(i int) string {
	if i < 0 || i >= len(c.Lectures) {
		return ""
	}
	if c.Lectures[i].Title != "" {
		return c.Lectures[i].Title
	}
	return fmt.Sprintf("Lecture %d", i+1)
}

// PreviewLecture returns the first lecture of the course.
func (c Course) PreviewLecture() (Lecture, bool) {
	if len(c.Lectures) == 0 {
		return Lecture{}, false
	}
	return c.Lectures[0], true
}

type LectureProgress struct {
	LectureID string `json:"lectureId"`
	Viewed    bool   `json:"viewed"`
}

// CourseProgress is the progress screen payload. Completed is the explicit
// server-side flag; it is independent of whether every lecture was viewed.
type CourseProgress struct {
	Course    Course            `json:"courseDetails"`
	Progress  []LectureProgress `json:"progress"`
	Completed bool              `json:"completed"`
}

type Session struct {
	Token string
	User  User
}

// Anonymous reports whether the session carries no token.
func (s Session) Anonymous() bool {
	return s.Token == ""
}
