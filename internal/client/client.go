// Package client is the Go client for the Pulse API and the terminal front
// end built on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pulse/internal/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the REST API under a base URL such as http://host/api.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client. A zero timeout means no timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// LikeResult is the answer to a like toggle.
type LikeResult struct {
	Message string `json:"message"`
	Liked   bool   `json:"liked"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload models.ErrorResponse
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var env userEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env.User, nil
}

// Login checks credentials and returns the account.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var env userEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env.User, nil
}

// SearchUsers finds users whose username contains query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/search/"+url.PathEscape(query), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Profile fetches a user's page. viewerID marks the posts the viewer liked.
func (c *Client) Profile(ctx context.Context, userID, viewerID uint) (*models.Profile, error) {
	path := "/users/" + id(userID)
	if viewerID != 0 {
		path += "?viewerId=" + id(viewerID)
	}
	var profile models.Profile
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func followBody(followerID, followingID uint) map[string]uint {
	return map[string]uint{"followerId": followerID, "followingId": followingID}
}

// Follow makes followerID follow followingID.
func (c *Client) Follow(ctx context.Context, followerID, followingID uint) (string, error) {
	var msg messageEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/follow", followBody(followerID, followingID), &msg)
	return msg.Message, err
}

// Unfollow removes the edge. Removing a missing edge succeeds.
func (c *Client) Unfollow(ctx context.Context, followerID, followingID uint) (string, error) {
	var msg messageEnvelope
	err := c.doJSON(ctx, http.MethodDelete, "/follow", followBody(followerID, followingID), &msg)
	return msg.Message, err
}

// FollowStatus reports whether followerID follows followingID.
func (c *Client) FollowStatus(ctx context.Context, followerID, followingID uint) (bool, error) {
	var out struct {
		IsFollowing bool `json:"isFollowing"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/follow/status/"+id(followerID)+"/"+id(followingID), nil, &out)
	return out.IsFollowing, err
}

// PostDraft is a post to publish. ImagePath is optional.
type PostDraft struct {
	UserID    uint
	Content   string
	ImagePath string
}

// CreatePost publishes a post as a multipart form.
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (*models.Post, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	postType := string(models.PostTypeText)
	if draft.ImagePath != "" {
		postType = string(models.PostTypeImage)
	}
	fields := [][2]string{
		{"userId", id(draft.UserID)},
		{"content", draft.Content},
		{"type", postType},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write form: %w", err)
		}
	}

	if draft.ImagePath != "" {
		if err := attachImage(w, draft.ImagePath); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", buf, w.FormDataContentType(), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func attachImage(w *multipart.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("write form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write form: %w", err)
	}
	return nil
}

// Feed returns the posts of userID and the users they follow, newest first.
func (c *Client) Feed(ctx context.Context, userID uint) ([]*models.Post, error) {
	var posts []*models.Post
	if err := c.doJSON(ctx, http.MethodGet, "/posts/feed/"+id(userID), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ToggleLike likes or unlikes a post and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	var out LikeResult
	err := c.doJSON(ctx, http.MethodPost, "/likes", map[string]uint{"userId": userID, "postId": postID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LikeStatus reports whether userID likes postID.
func (c *Client) LikeStatus(ctx context.Context, userID, postID uint) (bool, error) {
	var out struct {
		IsLiked bool `json:"isLiked"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/likes/status/"+id(userID)+"/"+id(postID), nil, &out)
	return out.IsLiked, err
}

// Comment adds a comment to a post.
func (c *Client) Comment(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	var comment models.Comment
	err := c.doJSON(ctx, http.MethodPost, "/comments", map[string]interface{}{
		"userId":  userID,
		"postId":  postID,
		"content": content,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments lists a post's comments, oldest first.
func (c *Client) Comments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := c.doJSON(ctx, http.MethodGet, "/comments/"+id(postID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
