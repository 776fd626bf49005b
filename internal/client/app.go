package client

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

var errNotLoggedIn = errors.New("not logged in: run `pulsectl login <email> <password>` first")

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// App runs pulsectl commands against the API. Every command re-fetches
// what it shows and renders it in full.
type App struct {
	api      *Client
	sessions *SessionStore
	out      io.Writer
	now      func() time.Time
	commands map[string]command
}

// NewApp wires an App from cfg.
func NewApp(cfg Config, out io.Writer) *App {
	return newApp(New(cfg.APIBase, cfg.Timeout), NewSessionStore(cfg.SessionFile), out, time.Now)
}

func newApp(api *Client, sessions *SessionStore, out io.Writer, now func() time.Time) *App {
	a := &App{api: api, sessions: sessions, out: out, now: now}
	a.commands = map[string]command{
		"register": {"register <username> <email> <password>", a.register},
		"login":    {"login <email> <password>", a.login},
		"logout":   {"logout", a.logout},
		"whoami":   {"whoami", a.whoami},
		"feed":     {"feed", a.feed},
		"post":     {"post [-image path] <content>", a.post},
		"like":     {"like <postId>", a.like},
		"comments": {"comments <postId>", a.comments},
		"comment":  {"comment <postId> <text>", a.comment},
		"search":   {"search <query>", a.search},
		"profile":  {"profile [userId]", a.profile},
		"follow":   {"follow <userId>", a.follow},
		"unfollow": {"unfollow <userId>", a.unfollow},
	}
	return a
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.Usage(a.out)
		return ErrUsage
	}
	cmd, ok := a.commands[args[0]]
	if !ok {
		a.Usage(a.out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if err := cmd.run(ctx, args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w: pulsectl %s", ErrUsage, cmd.usage)
		}
		return err
	}
	return nil
}

// Usage lists the commands.
func (a *App) Usage(w io.Writer) {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: pulsectl [-api url] [-session file] <command> [args]")
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", a.commands[name].usage)
	}
}

func (a *App) requireSession() (*Session, error) {
	session, err := a.sessions.Load()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errNotLoggedIn
	}
	return session, nil
}

func parseArgID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", ErrUsage, raw)
	}
	return uint(n), nil
}

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	user, err := a.api.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	if err := a.sessions.Save(&Session{User: *user, SavedAt: a.now()}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, @%s! You are logged in.\n", user.Username)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	user, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.sessions.Save(&Session{User: *user, SavedAt: a.now()}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as @%s.\n", user.Username)
	return nil
}

func (a *App) logout(_ context.Context, _ []string) error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "@%s (#%d) %s\n", session.User.Username, session.User.ID, session.User.Email)
	return nil
}

func (a *App) feed(ctx context.Context, _ []string) error {
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	posts, err := a.api.Feed(ctx, session.UserID())
	if err != nil {
		return err
	}
	RenderFeed(a.out, session, posts, a.now())
	return nil
}

func (a *App) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	image := fs.String("image", "", "path to a jpeg, png or gif")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	content := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(content) == "" {
		return ErrUsage
	}

	session, err := a.requireSession()
	if err != nil {
		return err
	}
	post, err := a.api.CreatePost(ctx, PostDraft{
		UserID:    session.UserID(),
		Content:   content,
		ImagePath: *image,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Posted:")
	RenderPost(a.out, session, post, a.now())
	return nil
}

func (a *App) like(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	postID, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	res, err := a.api.ToggleLike(ctx, session.UserID(), postID)
	if err != nil {
		return err
	}
	marker := "♡"
	if res.Liked {
		marker = "♥"
	}
	fmt.Fprintf(a.out, "%s %s (#%d)\n", marker, res.Message, postID)
	return nil
}

func (a *App) comments(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	postID, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	session, err := a.sessions.Load()
	if err != nil {
		return err
	}
	comments, err := a.api.Comments(ctx, postID)
	if err != nil {
		return err
	}
	RenderComments(a.out, session, comments, a.now())
	return nil
}

func (a *App) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	postID, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	if _, err := a.api.Comment(ctx, session.UserID(), postID, strings.Join(args[1:], " ")); err != nil {
		return err
	}

	comments, err := a.api.Comments(ctx, postID)
	if err != nil {
		return err
	}
	RenderComments(a.out, session, comments, a.now())
	return nil
}

func (a *App) search(ctx context.Context, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return ErrUsage
	}
	session, err := a.sessions.Load()
	if err != nil {
		return err
	}
	users, err := a.api.SearchUsers(ctx, query)
	if err != nil {
		return err
	}

	var following map[uint]bool
	if session != nil {
		following = make(map[uint]bool, len(users))
		for _, u := range users {
			if u.ID == session.UserID() {
				continue
			}
			ok, err := a.api.FollowStatus(ctx, session.UserID(), u.ID)
			if err != nil {
				return err
			}
			following[u.ID] = ok
		}
	}
	RenderUsers(a.out, session, users, following)
	return nil
}

func (a *App) profile(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	session, err := a.sessions.Load()
	if err != nil {
		return err
	}

	var userID uint
	if len(args) == 1 {
		if userID, err = parseArgID(args[0]); err != nil {
			return err
		}
	} else {
		if session == nil {
			return errNotLoggedIn
		}
		userID = session.UserID()
	}

	profile, err := a.api.Profile(ctx, userID, session.UserID())
	if err != nil {
		return err
	}

	var following *bool
	if session != nil && session.UserID() != userID {
		ok, err := a.api.FollowStatus(ctx, session.UserID(), userID)
		if err != nil {
			return err
		}
		following = &ok
	}
	RenderProfile(a.out, session, profile, following, a.now())
	return nil
}

func (a *App) follow(ctx context.Context, args []string) error {
	return a.changeFollow(ctx, args, a.api.Follow)
}

func (a *App) unfollow(ctx context.Context, args []string) error {
	return a.changeFollow(ctx, args, a.api.Unfollow)
}

func (a *App) changeFollow(ctx context.Context, args []string, call func(context.Context, uint, uint) (string, error)) error {
	if len(args) != 1 {
		return ErrUsage
	}
	userID, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	msg, err := call(ctx, session.UserID(), userID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
