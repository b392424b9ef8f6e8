package app

import (
	"context"
	"errors"
	"testing"

	"growskill/internal/backendtest"
)

func TestLoginThenProfileUsesStoredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.app.Login(ctx, LoginInput{Email: testEmail, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != testEmail {
		t.Fatalf("user email = %q", user.Email)
	}
	token, ok, err := env.sessions.Token(ctx)
	if err != nil || !ok || token == "" {
		t.Fatalf("token not persisted: %q %v %v", token, ok, err)
	}

	profile, err := env.app.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != testEmail {
		t.Fatalf("profile email = %q", profile.Email)
	}
	if got := env.srv.LastAuthorization(backendtest.EndpointProfile); got != "Bearer "+token {
		t.Fatalf("authorization = %q", got)
	}
}

func TestLogoutBlocksAuthenticatedActions(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	if err := env.app.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err := env.app.Profile(ctx)
	if !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected login required, got %v", err)
	}
	requireNotice(t, err, "Please login to view your profile.")
	if got := env.srv.Calls(backendtest.EndpointProfile); got != 0 {
		t.Fatalf("profile calls = %d, want 0", got)
	}
	if _, ok, _ := env.sessions.User(ctx); !ok {
		t.Fatalf("user record may remain after logout")
	}
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Login(ctx, LoginInput{Email: testEmail})
	n := requireNotice(t, err, "Please fill in all required fields")
	if n.Title != "Validation Error" || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unexpected notice: %+v", n)
	}
	_, err = env.app.Login(ctx, LoginInput{Email: "not-an-email", Password: "x"})
	requireNotice(t, err, "Please enter a valid email address.")
	if got := env.srv.Calls(backendtest.EndpointLogin); got != 0 {
		t.Fatalf("login calls = %d, want 0", got)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.app.Login(context.Background(), LoginInput{Email: testEmail, Password: "wrong"})
	n := requireNotice(t, err, "Incorrect email or password")
	if n.Title != "Login Failed" {
		t.Fatalf("title = %q", n.Title)
	}
	if env.app.Session().LoggedIn(context.Background()) {
		t.Fatalf("failed login must not store a session")
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.app.Register(ctx, RegisterInput{Name: "Grace", Email: "grace@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if msg != "Account created successfully." {
		t.Fatalf("message = %q", msg)
	}
	if env.app.Session().LoggedIn(ctx) {
		t.Fatalf("register must not log in")
	}
	_, err = env.app.Register(ctx, RegisterInput{Name: "Grace", Email: "grace@example.com", Password: "pw"})
	requireNotice(t, err, "User already exist with this email.")

	_, err = env.app.Register(ctx, RegisterInput{Name: "", Email: "x@example.com", Password: "pw"})
	requireNotice(t, err, "Please fill in all fields.")
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st, err := env.app.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.LoggedIn || st.HasUser {
		t.Fatalf("expected anonymous status, got %+v", st)
	}
	env.login(t)
	st, err = env.app.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.LoggedIn || st.User.Email != testEmail {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.TokenReadable {
		t.Fatalf("fake token is not a jwt")
	}
}
