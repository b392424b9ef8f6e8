package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"growskill/pkg/domain"
)

// Register creates an account. It returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var resp messageResponse
	if _, err := c.call(ctx, http.MethodPost, "/user/register", "", payload, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a bearer token and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if _, err := c.call(ctx, http.MethodPost, "/user/login", "", payload, &resp); err != nil {
		return "", domain.User{}, err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", domain.User{}, unsuccessful(resp.Message, "login response carried no token")
	}
	return resp.Token, resp.User, nil
}

// Profile returns the current user, including enrolled courses.
func (c *Client) Profile(ctx context.Context, token string) (domain.User, error) {
	var resp userResponse
	if _, err := c.call(ctx, http.MethodGet, "/user/profile", token, nil, &resp); err != nil {
		return domain.User{}, err
	}
	if !resp.Success {
		return domain.User{}, unsuccessful(resp.Message, "failed to load profile")
	}
	return resp.User, nil
}

// ProfileImage is an optional picture sent with a profile update.
type ProfileImage struct {
	Filename string
	Reader   io.Reader
}

// ContentType derives image/<ext> from the filename, or "image" when the
// name has no extension.
func (p ProfileImage) ContentType() string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(p.Filename)), ".")
	if ext == "" {
		return "image"
	}
	return "image/" + ext
}

// UpdateProfile sends a multipart form with the new name and, optionally,
// a profile picture.
func (c *Client) UpdateProfile(ctx context.Context, token, name string, image *ProfileImage) (domain.User, error) {
	req := c.newRequest(ctx, token).SetMultipartFormData(map[string]string{"name": name})
	if image != nil && image.Reader != nil {
		req.SetMultipartField("profile", filepath.Base(image.Filename), image.ContentType(), image.Reader)
	}
	var resp userResponse
	if _, err := c.execute(ctx, req, http.MethodPut, "/user/profile/update", &resp); err != nil {
		return domain.User{}, err
	}
	return resp.User, nil
}

// PublishedCourses lists the catalog. No authentication is needed.
func (c *Client) PublishedCourses(ctx context.Context) ([]domain.Course, error) {
	var resp coursesResponse
	if _, err := c.call(ctx, http.MethodGet, "/course/published-courses", "", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, unsuccessful(resp.Message, "failed to load courses")
	}
	return resp.Courses, nil
}

// CourseDetailWithStatus returns the full course and whether the session
// user purchased it, in one round trip.
func (c *Client) CourseDetailWithStatus(ctx context.Context, token, courseID string) (domain.Course, bool, error) {
	path := fmt.Sprintf("/purchase/course/%s/detail-with-status", url.PathEscape(courseID))
	var resp detailResponse
	if _, err := c.call(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return domain.Course{}, false, err
	}
	if resp.Course == nil {
		return domain.Course{}, false, unsuccessful(resp.Message, "course not found")
	}
	return *resp.Course, resp.Purchased, nil
}

// CheckoutSession is the hosted checkout returned by the backend.
type CheckoutSession struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// CreateCheckoutSession requests a hosted checkout URL for a course.
func (c *Client) CreateCheckoutSession(ctx context.Context, token, courseID string) (CheckoutSession, error) {
	payload := map[string]string{"courseId": courseID}
	var resp CheckoutSession
	if _, err := c.call(ctx, http.MethodPost, "/purchase/checkout/create-checkout-session", token, payload, &resp); err != nil {
		return CheckoutSession{}, err
	}
	return resp, nil
}

// CourseProgress returns lectures, per-lecture progress and the explicit
// completion flag for a purchased course.
func (c *Client) CourseProgress(ctx context.Context, token, courseID string) (domain.CourseProgress, error) {
	path := fmt.Sprintf("/progress/%s", url.PathEscape(courseID))
	var resp progressResponse
	if _, err := c.call(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return domain.CourseProgress{}, err
	}
	if resp.Data == nil {
		return domain.CourseProgress{}, unsuccessful(resp.Message, "progress response carried no data")
	}
	return *resp.Data, nil
}

// RecordLectureView marks one lecture as viewed.
func (c *Client) RecordLectureView(ctx context.Context, token, courseID, lectureID string) error {
	path := fmt.Sprintf("/progress/%s/lectures/%s/view", url.PathEscape(courseID), url.PathEscape(lectureID))
	_, err := c.call(ctx, http.MethodPost, path, token, struct{}{}, nil)
	return err
}

// MarkComplete sets the explicit completion flag.
func (c *Client) MarkComplete(ctx context.Context, token, courseID string) error {
	path := fmt.Sprintf("/progress/%s/complete", url.PathEscape(courseID))
	_, err := c.call(ctx, http.MethodPost, path, token, struct{}{}, nil)
	return err
}

// MarkIncomplete clears the explicit completion flag.
func (c *Client) MarkIncomplete(ctx context.Context, token, courseID string) error {
	path := fmt.Sprintf("/progress/%s/incomplete", url.PathEscape(courseID))
	_, err := c.call(ctx, http.MethodPost, path, token, struct{}{}, nil)
	return err
}

// Certificate downloads the completion certificate document.
func (c *Client) Certificate(ctx context.Context, token, courseName string) ([]byte, error) {
	req := c.newRequest(ctx, token).
		SetHeader("Accept", "application/pdf, application/octet-stream").
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"courseName": courseName})
	body, err := c.execute(ctx, req, http.MethodPost, "/certificate", nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, unsuccessful("", "certificate response was empty")
	}
	return body, nil
}

// GenerateQuestions asks the backend for interview questions on a course.
func (c *Client) GenerateQuestions(ctx context.Context, token, courseTitle string) ([]string, error) {
	payload := map[string]string{"courseTitle": courseTitle}
	var resp questionsResponse
	if _, err := c.call(ctx, http.MethodPost, "/generate", token, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

type userResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

type coursesResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Courses []domain.Course `json:"courses"`
}

type detailResponse struct {
	Message   string         `json:"message"`
	Course    *domain.Course `json:"course"`
	Purchased bool           `json:"purchased"`
}

type progressResponse struct {
	Message string                 `json:"message"`
	Data    *domain.CourseProgress `json:"data"`
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}
