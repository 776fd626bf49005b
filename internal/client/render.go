package client

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"pulse/internal/models"
)

// TimeAgo formats t relative to now: "Just now", "5m ago", "3h ago", "2d ago".
func TimeAgo(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "Just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}

func authorName(s *Session, userID uint, a *models.Author) string {
	name := "@unknown"
	if a != nil && a.Username != "" {
		name = "@" + a.Username
	}
	if s != nil && userID == s.User.ID {
		name += " (you)"
	}
	return name
}

func indent(text string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n  ")
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// RenderPost writes one post card.
func RenderPost(w io.Writer, s *Session, p *models.Post, now time.Time) {
	fmt.Fprintf(w, "#%d %s · %s\n", p.ID, authorName(s, p.UserID, p.User), TimeAgo(p.CreatedAt, now))
	fmt.Fprintln(w, indent(p.Content))
	if p.Image != nil && *p.Image != "" {
		fmt.Fprintf(w, "  [image] %s\n", *p.Image)
	}

	heart := "♡"
	if p.IsLiked {
		heart = "♥"
	}
	fmt.Fprintf(w, "  %s %s · %s\n", heart, plural(p.Likes, "like", "likes"), plural(p.Comments, "comment", "comments"))
}

// RenderPosts writes post cards separated by blank lines.
func RenderPosts(w io.Writer, s *Session, posts []*models.Post, now time.Time, empty string) {
	if len(posts) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for i, p := range posts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		RenderPost(w, s, p, now)
	}
}

// RenderFeed writes the home feed.
func RenderFeed(w io.Writer, s *Session, posts []*models.Post, now time.Time) {
	RenderPosts(w, s, posts, now, "No posts yet. Follow someone or write your first post.")
}

// RenderProfile writes a profile header followed by the user's posts.
// following is nil when the relation is not shown (own profile or anonymous).
func RenderProfile(w io.Writer, s *Session, p *models.Profile, following *bool, now time.Time) {
	fmt.Fprintf(w, "%s (#%d)\n", authorName(s, p.ID, &models.Author{Username: p.Username}), p.ID)
	if p.Bio != "" {
		fmt.Fprintln(w, indent(p.Bio))
	}
	fmt.Fprintf(w, "  %s · %s · %d following\n",
		plural(p.PostsCount, "post", "posts"),
		plural(p.FollowersCount, "follower", "followers"),
		p.FollowingCount)
	if following != nil {
		if *following {
			fmt.Fprintln(w, "  You follow this user")
		} else {
			fmt.Fprintln(w, "  You do not follow this user")
		}
	}
	fmt.Fprintln(w)
	RenderPosts(w, s, p.Posts, now, "No posts yet.")
}

// RenderUsers writes search results. following maps user ids the session
// user follows; it may be nil.
func RenderUsers(w io.Writer, s *Session, users []models.User, following map[uint]bool) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, u := range users {
		status := ""
		switch {
		case s != nil && u.ID == s.User.ID:
			status = "(you)"
		case following[u.ID]:
			status = "following"
		}
		fmt.Fprintf(tw, "#%d\t@%s\t%s\n", u.ID, u.Username, status)
	}
	_ = tw.Flush()
}

// RenderComments writes a post's comments, oldest first.
func RenderComments(w io.Writer, s *Session, comments []*models.Comment, now time.Time) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	for _, c := range comments {
		fmt.Fprintf(w, "%s · %s\n", authorName(s, c.UserID, c.User), TimeAgo(c.CreatedAt, now))
		fmt.Fprintln(w, indent(c.Content))
	}
}
