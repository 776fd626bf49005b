// Package seed fills the database with fake users, follows, posts, likes and
// comments for local development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pulse/internal/models"
	"pulse/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers     int
	PostsPerUser int
	MaxFollows   int
	MaxLikes     int
	MaxComments  int
	MaxDays      int
	ShouldClean  bool
	// Password is shared by every seeded account so they can log in.
	Password string
	// Seed makes runs reproducible. Zero uses the current time.
	Seed int64
	// HashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
	HashCost int
}

// DefaultOptions returns a small social graph.
func DefaultOptions() Options {
	return Options{
		NumUsers:     20,
		PostsPerUser: 5,
		MaxFollows:   6,
		MaxLikes:     8,
		MaxComments:  3,
		MaxDays:      30,
		ShouldClean:  true,
		Password:     "password123",
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d follows, %d posts, %d likes, %d comments",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments)
}

// Seeder writes fake data through the repositories.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	follows  repository.FollowRepository
	likes    repository.LikeRepository
	comments repository.CommentRepository
	fake     *gofakeit.Faker
	now      time.Time
}

// NewSeeder binds a Seeder to db.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		follows:  repository.NewFollowRepository(db),
		likes:    repository.NewLikeRepository(db),
		comments: repository.NewCommentRepository(db),
		fake:     gofakeit.New(seed),
		now:      time.Now(),
	}
}

// Run seeds according to opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return sum, err
		}
	}

	users, err := s.createUsers(ctx, opts)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)

	if sum.Follows, err = s.createFollowMesh(ctx, users, opts.MaxFollows); err != nil {
		return sum, err
	}

	posts, err := s.createPosts(ctx, users, opts)
	if err != nil {
		return sum, err
	}
	sum.Posts = len(posts)

	if sum.Likes, err = s.createLikes(ctx, users, posts, opts.MaxLikes); err != nil {
		return sum, err
	}
	if sum.Comments, err = s.createComments(ctx, users, posts, opts.MaxComments); err != nil {
		return sum, err
	}
	return sum, nil
}

// ClearAll removes every row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{&models.Like{}, &models.Comment{}, &models.Follow{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

var nonUsername = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// username turns a fake handle into a valid unique username.
func username(base string, n int) string {
	name := nonUsername.ReplaceAllString(base, "")
	if len(name) < 3 {
		name = "user" + name
	}
	suffix := fmt.Sprintf("_%d", n)
	if len(name)+len(suffix) > 30 {
		name = name[:30-len(suffix)]
	}
	return strings.ToLower(name) + suffix
}

func (s *Seeder) createUsers(ctx context.Context, opts Options) ([]*models.User, error) {
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	password := opts.Password
	if password == "" {
		password = DefaultOptions().Password
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 1; i <= opts.NumUsers; i++ {
		name := username(s.fake.Username(), i)
		u := &models.User{
			Username:  name,
			Email:     name + "@" + strings.ToLower(s.fake.DomainName()),
			Password:  string(hash),
			Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", name),
			Bio:       s.fake.HackerPhrase(),
			CreatedAt: s.pastTime(opts.MaxDays),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", name, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// pick returns up to n distinct indexes in [0, size) other than skip.
func (s *Seeder) pick(size, n, skip int) []int {
	idx := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if i != skip {
			idx = append(idx, i)
		}
	}
	s.fake.ShuffleAnySlice(idx)
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

func (s *Seeder) count(max int) int {
	if max <= 0 {
		return 0
	}
	return s.fake.Number(0, max)
}

func (s *Seeder) createFollowMesh(ctx context.Context, users []*models.User, maxFollows int) (int, error) {
	created := 0
	for i, u := range users {
		for _, j := range s.pick(len(users), s.count(maxFollows), i) {
			err := s.follows.Create(ctx, u.ID, users[j].ID)
			if isConflict(err) {
				continue
			}
			if err != nil {
				return created, fmt.Errorf("follow %d->%d: %w", u.ID, users[j].ID, err)
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) pastTime(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(s.fake.Number(0, maxDays*24*60)) * time.Minute
	return s.now.Add(-back)
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.User, opts Options) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(users)*opts.PostsPerUser)
	for _, u := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			p := &models.Post{
				UserID:    u.ID,
				Content:   s.fake.Paragraph(1, s.fake.Number(1, 3), 12, " "),
				Type:      models.PostTypeText,
				CreatedAt: s.pastTime(opts.MaxDays),
			}
			if s.fake.Number(1, 4) == 1 {
				url := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.fake.UUID())
				p.Type = models.PostTypeImage
				p.Image = &url
			}
			if err := s.posts.Create(ctx, p); err != nil {
				return nil, fmt.Errorf("create post for %d: %w", u.ID, err)
			}
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (s *Seeder) createLikes(ctx context.Context, users []*models.User, posts []*models.Post, maxLikes int) (int, error) {
	created := 0
	for _, u := range users {
		for _, j := range s.pick(len(posts), s.count(maxLikes), -1) {
			err := s.likes.Create(ctx, u.ID, posts[j].ID)
			if isConflict(err) {
				continue
			}
			if err != nil {
				return created, fmt.Errorf("like %d by %d: %w", posts[j].ID, u.ID, err)
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) createComments(ctx context.Context, users []*models.User, posts []*models.Post, maxComments int) (int, error) {
	created := 0
	for _, p := range posts {
		n := s.count(maxComments)
		for i := 0; i < n && len(users) > 0; i++ {
			author := users[s.fake.Number(0, len(users)-1)]
			at := p.CreatedAt.Add(time.Duration(s.fake.Number(1, 600)) * time.Minute)
			if at.After(s.now) {
				at = s.now
			}
			c := &models.Comment{
				UserID:    author.ID,
				PostID:    p.ID,
				Content:   s.fake.Sentence(s.fake.Number(3, 12)),
				CreatedAt: at,
			}
			if err := s.comments.Create(ctx, c); err != nil {
				return created, fmt.Errorf("comment on %d: %w", p.ID, err)
			}
			created++
		}
	}
	return created, nil
}

func isConflict(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeConflict
}
