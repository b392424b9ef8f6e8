// Package cli is the terminal front end. Each subcommand plays the role of
// one screen of the mobile client.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"growskill/internal/app"
	"growskill/internal/config"
	"growskill/internal/util"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// IO bundles the process streams.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, r *runner, args []string) error
}

var commands = map[string]command{
	"home":            {"list published courses and login state", runHome},
	"courses":         {"list published courses", runCourses},
	"register":        {"create an account", runRegister},
	"login":           {"sign in and store the session", runLogin},
	"logout":          {"remove the stored token", runLogout},
	"status":          {"show the stored session", runStatus},
	"profile":         {"show your profile", runProfile},
	"profile-update":  {"change your name or picture", runProfileUpdate},
	"my-learning":     {"list enrolled courses", runMyLearning},
	"course":          {"show a course and its purchase status", runCourse},
	"checkout":        {"buy a course", runCheckout},
	"progress":        {"show lecture progress of a purchased course", runProgress},
	"watch":           {"report that a lecture finished playing", runWatch},
	"toggle-complete": {"mark a course completed or incomplete", runToggle},
	"certificate":     {"download the completion certificate", runCertificate},
	"interview":       {"generate interview questions", runInterview},
}

// Main parses global flags, loads configuration, wires the client core and
// runs one subcommand. It returns the process exit code.
func Main(ctx context.Context, args []string, streams IO) int {
	global := flag.NewFlagSet("growskill", flag.ContinueOnError)
	global.SetOutput(streams.Stderr)
	configPath := global.String("config", "", "config file (default config.yaml or $GROWSKILL_CONFIG)")
	ephemeral := global.Bool("ephemeral", false, "keep the session in memory for this run only")
	logLevel := global.String("log-level", "", "override log level (debug, info, warn, error)")
	global.Usage = func() { usage(streams.Stderr) }
	if err := global.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(streams.Stderr, "growskill: %v\n", err)
		return ExitFailure
	}
	if *ephemeral {
		cfg.SessionBackend = config.BackendMemory
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := util.InitLogger(cfg.LogLevel, streams.Stderr)
	ctx = util.ContextWithLogger(ctx, logger)

	core, cleanup, err := Build(cfg, logger, streams.Stdout)
	if err != nil {
		fmt.Fprintf(streams.Stderr, "growskill: %v\n", err)
		return ExitFailure
	}
	defer cleanup()
	return Run(ctx, core, global.Args(), streams)
}

// Run dispatches one subcommand against an already wired core.
func Run(ctx context.Context, core *app.App, args []string, streams IO) int {
	if len(args) == 0 {
		usage(streams.Stderr)
		return ExitUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		usage(streams.Stdout)
		return ExitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(streams.Stderr, "growskill: unknown command %q\n", name)
		usage(streams.Stderr)
		return ExitUsage
	}
	r := &runner{app: core, io: streams, name: name}
	err := cmd.run(ctx, r, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return ExitUsage
	}
	if n, ok := app.AsNotice(err); ok {
		fmt.Fprintln(streams.Stderr, n.Error())
		util.LoggerFromContext(ctx).Debug("command failed", "command", name, "err", n.Err)
		return ExitFailure
	}
	fmt.Fprintf(streams.Stderr, "Error: %v\n", err)
	return ExitFailure
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: growskill [--config path] [--ephemeral] [--log-level level] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
}

var errUsage = errors.New("usage")

type runner struct {
	app  *app.App
	io   IO
	name string
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.io.Stdout, format, args...)
}

func (r *runner) usageErr(format string, args ...any) error {
	fmt.Fprintf(r.io.Stderr, "usage: growskill %s %s\n", r.name, fmt.Sprintf(format, args...))
	return errUsage
}

func (r *runner) flags() *flag.FlagSet {
	fs := flag.NewFlagSet(r.name, flag.ContinueOnError)
	fs.SetOutput(r.io.Stderr)
	return fs
}

// parseArgs accepts flags before, between and after positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (r *runner) courseArg(args []string, extra string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", r.usageErr("<course-id>%s", extra)
	}
	return strings.TrimSpace(args[0]), nil
}

// openTracker walks the same path as the screens: course detail first, then
// the progress tracker only when the course is purchased.
func (r *runner) openTracker(ctx context.Context, courseID string) (*app.Tracker, error) {
	view, err := r.app.SelectCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return r.app.ContinueCourse(ctx, view)
}

func runHome(ctx context.Context, r *runner, args []string) error {
	if _, err := parseArgs(r.flags(), args); err != nil {
		return err
	}
	view, err := r.app.Home(ctx)
	if view.LoggedIn {
		r.printf("Welcome back, %s\n\n", displayName(view.User.Name))
	} else {
		r.printf("You are browsing as a guest. Run `growskill login` to buy courses.\n\n")
	}
	if err != nil {
		return err
	}
	renderCourseList(r.io.Stdout, view.Courses)
	return nil
}

func runCourses(ctx context.Context, r *runner, args []string) error {
	if _, err := parseArgs(r.flags(), args); err != nil {
		return err
	}
	view, err := r.app.Home(ctx)
	if err != nil {
		return err
	}
	renderCourseList(r.io.Stdout, view.Courses)
	return nil
}

func runRegister(ctx context.Context, r *runner, args []string) error {
	fs := r.flags()
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *password == "" && *email != "" {
		pw, err := readPassword(r.io, "Password: ")
		if err != nil {
			return err
		}
		*password = pw
	}
	msg, err := r.app.Register(ctx, app.RegisterInput{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	r.printf("%s\nRun `growskill login --email %s` to sign in.\n", msg, *email)
	return nil
}

func runLogin(ctx context.Context, r *runner, args []string) error {
	fs := r.flags()
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *password == "" && *email != "" {
		pw, err := readPassword(r.io, "Password: ")
		if err != nil {
			return err
		}
		*password = pw
	}
	user, err := r.app.Login(ctx, app.LoginInput{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	r.printf("Login successful!\n")
	renderUser(r.io.Stdout, user)
	return nil
}

func runLogout(ctx context.Context, r *runner, args []string) error {
	if _, err := parseArgs(r.flags(), args); err != nil {
		return err
	}
	if err := r.app.Logout(ctx); err != nil {
		return err
	}
	r.printf("You have been logged out.\n")
	return nil
}

func runStatus(ctx context.Context, r *runner, args []string) error {
	if _, err := parseArgs(r.flags(), args); err != nil {
		return err
	}
	st, err := r.app.Status(ctx)
	if err != nil {
		return err
	}
	if !st.LoggedIn {
		r.printf("Not logged in.\n")
		if st.HasUser {
			r.printf("Last user: %s <%s>\n", displayName(st.User.Name), st.User.Email)
		}
		return nil
	}
	r.printf("Logged in as %s <%s>\n", displayName(st.User.Name), st.User.Email)
	if st.TokenReadable && !st.Token.ExpiresAt.IsZero() {
		state := "valid until"
		if st.Expired {
			state = "expired at"
		}
		r.printf("Token %s %s\n", state, st.Token.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func runProfile(ctx context.Context, r *runner, args []string) error {
	if _, err := parseArgs(r.flags(), args); err != nil {
		return err
	}
	user, err := r.app.Profile(ctx)
	if err != nil {
		return err
	}
	renderUser(r.io.Stdout, user)
	r.printf("Enrolled courses: %d\n", len(user.EnrolledCourses))
	return nil
}

func runProfileUpdate(ctx context.Context, r *runner, args []string) error {
	fs := r.flags()
	name := fs.String("name", "", "new display name")
	image := fs.String("image", "", "path to a profile picture")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	user, err := r.app.UpdateProfile(ctx, *name, *image)
	if err != nil {
		return err
	}
	r.printf("Profile updated successfully\n")
	renderUser(r.io.Stdout, user)
	return nil
}

func runMyLearning(ctx context.Context, r *runner, args []string) error {
	if _, err := parseArgs(r.flags(), args); err != nil {
		return err
	}
	courses, err := r.app.MyLearning(ctx)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		r.printf("You are not enrolled in any course yet.\n")
		return nil
	}
	renderCourseList(r.io.Stdout, courses)
	return nil
}

func runCourse(ctx context.Context, r *runner, args []string) error {
	pos, err := parseArgs(r.flags(), args)
	if err != nil {
		return err
	}
	courseID, err := r.courseArg(pos, "")
	if err != nil {
		return err
	}
	view, err := r.app.SelectCourse(ctx, courseID)
	if view != nil && view.State == app.StateNotFound {
		r.printf("Course not found.\n")
	}
	if err != nil {
		return err
	}
	renderCourseDetail(r.io.Stdout, view)
	return nil
}

func runCheckout(ctx context.Context, r *runner, args []string) error {
	fs := r.flags()
	wait := fs.Bool("wait", false, "poll until the purchase shows up")
	interval := fs.Duration("interval", 0, "poll interval with --wait")
	timeout := fs.Duration("timeout", 15*time.Minute, "give up waiting after this long")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	courseID, err := r.courseArg(pos, " [--wait]")
	if err != nil {
		return err
	}
	if _, err := r.app.BeginCheckout(ctx, courseID); err != nil {
		return err
	}
	if !*wait {
		r.printf("Run `growskill course %s` after paying to see your purchase.\n", courseID)
		return nil
	}
	r.printf("Waiting for the purchase to complete...\n")
	waitCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	view, err := r.app.WaitForPurchase(waitCtx, courseID, *interval)
	if errors.Is(err, context.DeadlineExceeded) {
		r.printf("Purchase not confirmed yet. Run `growskill course %s` later.\n", courseID)
		return nil
	}
	if err != nil {
		return err
	}
	r.printf("Purchase confirmed: %s\nRun `growskill progress %s` to start learning.\n", view.Course.Title, courseID)
	return nil
}

func runProgress(ctx context.Context, r *runner, args []string) error {
	pos, err := parseArgs(r.flags(), args)
	if err != nil {
		return err
	}
	courseID, err := r.courseArg(pos, "")
	if err != nil {
		return err
	}
	tracker, err := r.openTracker(ctx, courseID)
	if err != nil {
		return err
	}
	defer tracker.Close()
	renderProgress(r.io.Stdout, tracker)
	return nil
}

func runWatch(ctx context.Context, r *runner, args []string) error {
	pos, err := parseArgs(r.flags(), args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return r.usageErr("<course-id> <lecture-id>")
	}
	tracker, err := r.openTracker(ctx, pos[0])
	if err != nil {
		return err
	}
	defer tracker.Close()
	sent, err := tracker.PlaybackFinished(ctx, pos[1])
	if err != nil {
		return err
	}
	if sent {
		r.printf("Lecture marked as viewed.\n")
	} else {
		r.printf("Lecture already viewed.\n")
	}
	renderProgress(r.io.Stdout, tracker)
	return nil
}

func runToggle(ctx context.Context, r *runner, args []string) error {
	pos, err := parseArgs(r.flags(), args)
	if err != nil {
		return err
	}
	courseID, err := r.courseArg(pos, "")
	if err != nil {
		return err
	}
	tracker, err := r.openTracker(ctx, courseID)
	if err != nil {
		return err
	}
	defer tracker.Close()
	action, err := tracker.ToggleCompletion(ctx)
	if err != nil {
		return err
	}
	r.printf("%s\n", app.ToggleMessage(action))
	return nil
}

func runCertificate(ctx context.Context, r *runner, args []string) error {
	pos, err := parseArgs(r.flags(), args)
	if err != nil {
		return err
	}
	courseID, err := r.courseArg(pos, "")
	if err != nil {
		return err
	}
	tracker, err := r.openTracker(ctx, courseID)
	if err != nil {
		return err
	}
	defer tracker.Close()
	res, err := tracker.DownloadCertificate(ctx)
	if err != nil {
		return err
	}
	r.printf("%s\nFile: %s\n", res.Message(), res.Path)
	return nil
}

func runInterview(ctx context.Context, r *runner, args []string) error {
	pos, err := parseArgs(r.flags(), args)
	if err != nil {
		return err
	}
	courseID, err := r.courseArg(pos, "")
	if err != nil {
		return err
	}
	tracker, err := r.openTracker(ctx, courseID)
	if err != nil {
		return err
	}
	defer tracker.Close()
	questions, err := tracker.InterviewQuestions(ctx)
	if err != nil {
		return err
	}
	r.printf("Interview questions for %s\n\n", tracker.Course().Title)
	if len(questions) == 0 {
		r.printf("No questions were generated.\n")
		return nil
	}
	for _, line := range app.NumberQuestions(questions) {
		r.printf("%s\n", line)
	}
	return nil
}
