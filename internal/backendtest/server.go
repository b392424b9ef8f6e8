// Package backendtest runs an in-process fake of the GrowSkill REST API for
// tests. It keeps users, purchases and progress in memory and counts calls
// per endpoint.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"growskill/pkg/document"
	"growskill/pkg/domain"
)

// Endpoint names used by Calls and FailNext.
const (
	EndpointRegister      = "register"
	EndpointLogin         = "login"
	EndpointProfile       = "profile"
	EndpointProfileUpdate = "profile-update"
	EndpointCourses       = "published-courses"
	EndpointDetail        = "detail-with-status"
	EndpointCheckout      = "checkout"
	EndpointProgress      = "progress"
	EndpointView          = "view"
	EndpointComplete      = "complete"
	EndpointIncomplete    = "incomplete"
	EndpointCertificate   = "certificate"
	EndpointGenerate      = "generate"
)

type account struct {
	user     domain.User
	password string
}

// Upload is the last multipart profile update received.
type Upload struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account // email -> account
	tokens      map[string]string   // token -> email
	courses     []domain.Course
	purchased   map[string]bool // email|course
	viewed      map[string]map[string]bool
	completed   map[string]bool
	calls       map[string]int
	failures    map[string][]int
	checkoutURL string
	questions   []string
	lastUpload  *Upload
	lastAuth    map[string]string
}

// New starts a fake backend that is closed with the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		purchased:   make(map[string]bool),
		viewed:      make(map[string]map[string]bool),
		completed:   make(map[string]bool),
		calls:       make(map[string]int),
		failures:    make(map[string][]int),
		lastAuth:    make(map[string]string),
		checkoutURL: "https://checkout.example.com/session/cs_test",
		questions:   []string{"What is a goroutine?", "Explain channels."},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.route))
	t.Cleanup(s.Server.Close)
	return s
}

// AddUser registers an account and returns a valid token for it.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := &account{
		user:     domain.User{ID: "u-" + email, Name: name, Email: email, Role: domain.RoleStudent},
		password: password,
	}
	s.accounts[email] = acct
	token := "token-" + email
	s.tokens[token] = email
	return token
}

// AddCourse publishes a course.
func (s *Server) AddCourse(c domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Published = true
	s.courses = append(s.courses, c)
}

// SetPurchased marks a course as bought by email.
func (s *Server) SetPurchased(email, courseID string, purchased bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchased[email+"|"+courseID] = purchased
}

// SetViewed records a lecture view server-side.
func (s *Server) SetViewed(email, courseID, lectureID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markViewed(email+"|"+courseID, lectureID)
}

// Completed reports the explicit completion flag.
func (s *Server) Completed(email, courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[email+"|"+courseID]
}

// SetCheckoutURL changes the URL returned by checkout; empty means failure.
func (s *Server) SetCheckoutURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkoutURL = url
}

// SetQuestions changes the generated interview questions.
func (s *Server) SetQuestions(q []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append([]string(nil), q...)
}

// FailNext makes the next calls to endpoint answer with the given statuses,
// one per call. Status 0 closes the connection without a response.
func (s *Server) FailNext(endpoint string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = append(s.failures[endpoint], statuses...)
}

// Calls returns how many requests reached endpoint.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// LastAuthorization returns the Authorization header of the last request to
// endpoint.
func (s *Server) LastAuthorization(endpoint string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[endpoint]
}

// LastUpload returns the last profile update form.
func (s *Server) LastUpload() *Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpload
}

func (s *Server) markViewed(key, lectureID string) {
	if s.viewed[key] == nil {
		s.viewed[key] = make(map[string]bool)
	}
	s.viewed[key][lectureID] = true
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	endpoint := ""
	switch {
	case r.Method == http.MethodPost && path == "/user/register":
		endpoint = EndpointRegister
	case r.Method == http.MethodPost && path == "/user/login":
		endpoint = EndpointLogin
	case r.Method == http.MethodGet && path == "/user/profile":
		endpoint = EndpointProfile
	case r.Method == http.MethodPut && path == "/user/profile/update":
		endpoint = EndpointProfileUpdate
	case r.Method == http.MethodGet && path == "/course/published-courses":
		endpoint = EndpointCourses
	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "purchase" && parts[1] == "course" && parts[3] == "detail-with-status":
		endpoint = EndpointDetail
	case r.Method == http.MethodPost && path == "/purchase/checkout/create-checkout-session":
		endpoint = EndpointCheckout
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "progress":
		endpoint = EndpointProgress
	case r.Method == http.MethodPost && len(parts) == 5 && parts[0] == "progress" && parts[2] == "lectures" && parts[4] == "view":
		endpoint = EndpointView
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "progress" && parts[2] == "complete":
		endpoint = EndpointComplete
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "progress" && parts[2] == "incomplete":
		endpoint = EndpointIncomplete
	case r.Method == http.MethodPost && path == "/certificate":
		endpoint = EndpointCertificate
	case r.Method == http.MethodPost && path == "/generate":
		endpoint = EndpointGenerate
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
		return
	}

	s.mu.Lock()
	s.calls[endpoint]++
	s.lastAuth[endpoint] = r.Header.Get("Authorization")
	var failStatus = -1
	if queued := s.failures[endpoint]; len(queued) > 0 {
		failStatus = queued[0]
		s.failures[endpoint] = queued[1:]
	}
	s.mu.Unlock()

	switch {
	case failStatus == 0:
		hijackAndClose(w)
		return
	case failStatus > 0:
		writeJSON(w, failStatus, map[string]any{"success": false, "message": fmt.Sprintf("injected failure %d", failStatus)})
		return
	}

	switch endpoint {
	case EndpointRegister:
		s.handleRegister(w, r)
	case EndpointLogin:
		s.handleLogin(w, r)
	case EndpointCourses:
		s.handleCourses(w)
	default:
		email, ok := s.authenticate(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "User not authenticated"})
			return
		}
		s.handleAuthenticated(w, r, endpoint, email, parts)
	}
}

func (s *Server) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[strings.TrimSpace(token)]
	return email, ok
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "All fields are required."})
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[req.Email]
	s.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "User already exist with this email."})
		return
	}
	s.AddUser(req.Name, req.Email, req.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Account created successfully."})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid body"})
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acct.password != req.Password {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Incorrect email or password"})
		return
	}
	token := "token-" + req.Email
	s.mu.Lock()
	s.tokens[token] = req.Email
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Welcome back " + acct.user.Name,
		"token":   token,
		"user":    acct.user,
	})
}

func (s *Server) handleCourses(w http.ResponseWriter) {
	s.mu.Lock()
	courses := append([]domain.Course(nil), s.courses...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "courses": courses})
}

func (s *Server) course(id string) (domain.Course, bool) {
	for _, c := range s.courses {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Course{}, false
}

func (s *Server) handleAuthenticated(w http.ResponseWriter, r *http.Request, endpoint, email string, parts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[email]
	switch endpoint {
	case EndpointProfile:
		user := acct.user
		user.EnrolledCourses = nil
		for _, c := range s.courses {
			if s.purchased[email+"|"+c.ID] {
				user.EnrolledCourses = append(user.EnrolledCourses, c)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
	case EndpointProfileUpdate:
		if err := r.ParseMultipartForm(4 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid form"})
			return
		}
		up := &Upload{Name: r.FormValue("name")}
		if file, header, err := r.FormFile("profile"); err == nil {
			up.Filename = header.Filename
			up.ContentType = header.Header.Get("Content-Type")
			up.Data, _ = io.ReadAll(file)
			file.Close()
			acct.user.PhotoURL = "https://cdn.example.com/" + header.Filename
		}
		s.lastUpload = up
		acct.user.Name = up.Name
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Profile updated successfully.", "user": acct.user})
	case EndpointDetail:
		c, ok := s.course(parts[2])
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "course not found!"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"course": c, "purchased": s.purchased[email+"|"+c.ID]})
	case EndpointCheckout:
		var req struct {
			CourseID string `json:"courseId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, ok := s.course(req.CourseID); !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Course not found!"})
			return
		}
		if s.checkoutURL == "" {
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": s.checkoutURL})
	case EndpointProgress:
		c, ok := s.course(parts[1])
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Course not found"})
			return
		}
		key := email + "|" + c.ID
		progress := make([]domain.LectureProgress, 0)
		for _, l := range c.Lectures {
			if s.viewed[key][l.ID] {
				progress = append(progress, domain.LectureProgress{LectureID: l.ID, Viewed: true})
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"courseDetails": c,
			"progress":      progress,
			"completed":     s.completed[key],
		}})
	case EndpointView:
		s.markViewed(email+"|"+parts[1], parts[3])
		writeJSON(w, http.StatusOK, map[string]any{"message": "Lecture progress updated successfully."})
	case EndpointComplete:
		s.completed[email+"|"+parts[1]] = true
		writeJSON(w, http.StatusOK, map[string]any{"message": "Course marked as completed."})
	case EndpointIncomplete:
		s.completed[email+"|"+parts[1]] = false
		writeJSON(w, http.StatusOK, map[string]any{"message": "Course marked as incompleted."})
	case EndpointCertificate:
		var req struct {
			CourseName string `json:"courseName"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(document.MinimalPDF(acct.user.Name + " completed " + req.CourseName))
	case EndpointGenerate:
		writeJSON(w, http.StatusOK, map[string]any{"questions": s.questions})
	}
}

func hijackAndClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
