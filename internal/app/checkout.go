package app

import (
	"context"
	"strings"
	"time"

	"growskill/internal/apiclient"
	"growskill/internal/util"
)

// BeginCheckout asks the backend for a hosted checkout URL and hands it to
// the opener. Purchase state is never changed locally; it is only observed
// by loading the course detail again.
func (a *App) BeginCheckout(ctx context.Context, courseID string) (string, error) {
	token, err := a.requireToken(ctx, "Please login to purchase this course.")
	if err != nil {
		return "", err
	}
	session, err := a.api.CreateCheckoutSession(ctx, token, courseID)
	if err != nil {
		return "", notice("Error", "Something went wrong during checkout.", err)
	}
	url := strings.TrimSpace(session.URL)
	if !session.Success || url == "" {
		util.LoggerFromContext(ctx).Warn("checkout returned no url", "course_id", courseID)
		return "", notice("Error", "Could not initiate checkout.", ErrCheckoutFailed)
	}
	if a.opener == nil {
		return url, nil
	}
	if err := a.opener.Open(ctx, url); err != nil {
		return url, notice("Error", "Something went wrong during checkout.", err)
	}
	return url, nil
}

// WaitForPurchase re-queries the purchase status every interval until the
// course shows as purchased or ctx ends. Transient failures are logged and
// polled through; a rejected token stops the wait.
func (a *App) WaitForPurchase(ctx context.Context, courseID string, interval time.Duration) (*CourseDetailView, error) {
	if interval <= 0 {
		interval = a.pollInterval
	}
	logger := util.LoggerFromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		token, err := a.requireToken(ctx, "Please login to purchase this course.")
		if err != nil {
			return nil, err
		}
		course, purchased, err := a.api.CourseDetailWithStatus(ctx, token, courseID)
		switch {
		case err == nil && purchased:
			return &CourseDetailView{State: StateLoaded, Course: course, Purchased: true}, nil
		case apiclient.IsUnauthorized(err):
			return nil, notice("Error", "Could not load course details.", err)
		case err != nil:
			logger.Warn("purchase poll failed", "course_id", courseID, "err", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
