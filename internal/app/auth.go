package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"growskill/internal/apiclient"
	"growskill/internal/util"
	"growskill/pkg/domain"
	"growskill/pkg/store"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginInput is the sign-in form.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Register creates an account and returns the backend's confirmation.
// It does not log the user in.
func (a *App) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := a.validateForm(in, "Please fill in all fields."); err != nil {
		return "", err
	}
	msg, err := a.api.Register(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			return "", notice("Error", serverMessage(err, "Registration failed."), err)
		}
		return "", notice("Error", "Something went wrong. Please try again.", err)
	}
	if strings.TrimSpace(msg) == "" {
		msg = "Account created successfully."
	}
	return msg, nil
}

// Login signs in and persists the session before returning, so any
// authenticated call made afterwards sees the new token.
func (a *App) Login(ctx context.Context, in LoginInput) (domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := a.validateForm(in, "Please fill in all required fields"); err != nil {
		return domain.User{}, err
	}
	token, user, err := a.api.Login(ctx, in.Email, in.Password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) || errors.Is(err, apiclient.ErrUnsuccessful) {
			return domain.User{}, notice("Login Failed", serverMessage(err, "Something went wrong"), err)
		}
		return domain.User{}, notice("Error", "Failed to login. Please try again.", err)
	}
	if err := a.session.Save(ctx, token, user); err != nil {
		return domain.User{}, notice("Error", "Failed to login. Please try again.", err)
	}
	util.LoggerFromContext(ctx).Info("logged in", "user_id", user.ID)
	return user, nil
}

// Logout removes the stored token. The user record may stay behind.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return notice("Error", "Something went wrong while logging out.", err)
	}
	return nil
}

// StatusView describes the stored session.
type StatusView struct {
	LoggedIn bool
	User     domain.User
	HasUser  bool
	Token    store.TokenInfo
	// TokenReadable is false when the token is not a decodable JWT.
	TokenReadable bool
	Expired       bool
}

// Status reports the stored session without contacting the backend.
func (a *App) Status(ctx context.Context) (StatusView, error) {
	sess, err := a.session.Current(ctx)
	if err != nil {
		return StatusView{}, notice("Error", "Could not read the saved session.", err)
	}
	view := StatusView{
		LoggedIn: !sess.Anonymous(),
		User:     sess.User,
		HasUser:  sess.User.ID != "" || sess.User.Email != "",
	}
	if view.LoggedIn {
		if info, err := store.InspectToken(sess.Token); err == nil {
			view.Token = info
			view.TokenReadable = true
			view.Expired = info.Expired(time.Now())
		}
	}
	return view, nil
}

func (a *App) validateForm(form any, requiredMessage string) error {
	err := a.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return notice("Validation Error", requiredMessage, ErrInvalidInput)
			}
		}
		return notice("Validation Error", "Please enter a valid email address.", ErrInvalidInput)
	}
	return notice("Validation Error", requiredMessage, err)
}
