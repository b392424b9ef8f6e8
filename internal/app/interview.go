package app

import (
	"context"
	"fmt"

	"growskill/internal/ratelimit"
	"growskill/internal/util"
)

// InterviewQuestions asks the backend for interview questions on the
// tracked course. Results are never cached; each call is a new request.
func (t *Tracker) InterviewQuestions(ctx context.Context) ([]string, error) {
	course, err := t.requireFinished("interview preparation")
	if err != nil {
		return nil, err
	}
	token, err := t.app.requireToken(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := t.app.allowInterview(ctx, token); err != nil {
		return nil, err
	}
	callCtx, done := t.callContext(ctx)
	defer done()
	questions, err := t.app.api.GenerateQuestions(callCtx, token, course.Title)
	if t.isClosed() {
		return nil, ErrViewClosed
	}
	if err != nil {
		util.LoggerFromContext(ctx).Warn("generate questions failed", "course_id", t.courseID, "err", err)
		return nil, notice("Error", "Failed to generate interview questions.", err)
	}
	return questions, nil
}

// allowInterview applies the optional throttle keyed by user. Limiter
// outages let the request through.
func (a *App) allowInterview(ctx context.Context, token string) error {
	if a.limiter == nil {
		return nil
	}
	key := token
	if sess, err := a.session.Current(ctx); err == nil && sess.User.ID != "" {
		key = sess.User.ID
	}
	decision, err := a.limiter.Allow(ctx, "interview:"+key)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("interview limiter unavailable", "err", err)
		return nil
	}
	if !decision.Allowed {
		msg := "Too many requests. Please try again later."
		if decision.RetryAfter > 0 {
			msg = fmt.Sprintf("Too many requests. Try again in %ds.", int(decision.RetryAfter.Seconds()+0.999))
		}
		return notice("Error", msg, ratelimit.ErrRateLimited)
	}
	return nil
}

// NumberQuestions renders questions as Q1..Qn in backend order.
func NumberQuestions(questions []string) []string {
	out := make([]string, 0, len(questions))
	for i, q := range questions {
		out = append(out, fmt.Sprintf("Q%d. %s", i+1, q))
	}
	return out
}
