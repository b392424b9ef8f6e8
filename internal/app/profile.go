package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"growskill/internal/apiclient"
	"growskill/internal/util"
	"growskill/pkg/domain"
)

// Profile fetches the current user from the backend.
func (a *App) Profile(ctx context.Context) (domain.User, error) {
	token, err := a.requireToken(ctx, "Please login to view your profile.")
	if err != nil {
		return domain.User{}, err
	}
	user, err := a.api.Profile(ctx, token)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) || errors.Is(err, apiclient.ErrUnsuccessful) {
			return domain.User{}, notice("Error", serverMessage(err, "Failed to load profile"), err)
		}
		return domain.User{}, notice("Error", "Failed to fetch profile data.", err)
	}
	return user, nil
}

// MyLearning lists the courses the user is enrolled in.
func (a *App) MyLearning(ctx context.Context) ([]domain.Course, error) {
	user, err := a.Profile(ctx)
	if err != nil {
		if n, ok := AsNotice(err); ok && errors.Is(n, ErrLoginRequired) {
			return nil, err
		}
		return nil, notice("Error", "Could not load your courses.", err)
	}
	return user.EnrolledCourses, nil
}

// UpdateProfile changes the display name and, when imagePath is set,
// uploads a new profile picture.
func (a *App) UpdateProfile(ctx context.Context, name, imagePath string) (domain.User, error) {
	token, err := a.session.RequireToken(ctx)
	if errors.Is(err, ErrLoginRequired) {
		return domain.User{}, notice("Not authorized", "Please login to update your profile.", err)
	}
	if err != nil {
		return domain.User{}, notice("Error", "Could not read the saved session.", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, notice("Validation Error", "Name is required.", ErrInvalidInput)
	}
	var image *apiclient.ProfileImage
	if imagePath = strings.TrimSpace(imagePath); imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return domain.User{}, notice("Update failed", fmt.Sprintf("Cannot read image %s.", imagePath), err)
		}
		defer f.Close()
		image = &apiclient.ProfileImage{Filename: imagePath, Reader: f}
	}
	user, err := a.api.UpdateProfile(ctx, token, name, image)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			return domain.User{}, notice("Update failed", serverMessage(err, "Something went wrong"), err)
		}
		return domain.User{}, notice("Update failed", "An unexpected error occurred.", err)
	}
	if sess, err := a.session.Current(ctx); err == nil && !sess.Anonymous() && user.ID != "" {
		if err := a.session.Save(ctx, sess.Token, user); err != nil {
			util.LoggerFromContext(ctx).Warn("save updated user failed", "user_id", user.ID, "err", err)
		}
	}
	return user, nil
}
