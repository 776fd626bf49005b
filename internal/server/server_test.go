package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"pulse/internal/config"
	"pulse/internal/models"
	"pulse/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	uploader *testutil.UploaderStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Port:             "0",
		Env:              "test",
		AllowedOrigins:   "*",
		ImageStore:       config.ImageStoreLocal,
		ImageMaxUploadMB: 5,
	}
	db := testutil.NewTestDB(t)
	uploader := &testutil.UploaderStub{}

	s, err := NewServerWithDeps(cfg, db, nil, uploader)
	require.NoError(t, err)

	return &testServer{app: s.NewApp(), db: db, uploader: uploader}
}

func (ts *testServer) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (ts *testServer) doJSON(t *testing.T, method, path string, payload interface{}) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req)
}

type formFile struct {
	name        string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func errorMessage(t *testing.T, body []byte) string {
	return decode[models.ErrorResponse](t, body).Error
}

func TestHealthChecks(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.doJSON(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := ts.doJSON(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	ready := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, body)
	assert.Equal(t, "healthy", ready.Status)
	assert.Equal(t, "healthy", ready.Checks["database"])
	assert.Equal(t, "unavailable", ready.Checks["redis"])
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.doJSON(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, errorMessage(t, body))
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.doJSON(t, http.MethodPost, "/api/register", fiber.Map{
		"username": "alice", "email": "Alice@Example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	reg := decode[struct {
		User map[string]interface{} `json:"user"`
	}](t, body)
	assert.Equal(t, "alice", reg.User["username"])
	assert.Equal(t, "alice@example.com", reg.User["email"])
	assert.NotContains(t, reg.User, "password")

	status, body = ts.doJSON(t, http.MethodPost, "/api/register", fiber.Map{
		"username": "alice", "email": "other@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User with this email or username already exists", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/register", fiber.Map{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "All fields are required", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/login", fiber.Map{
		"email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"username":"alice"`)

	status, body = ts.doJSON(t, http.MethodPost, "/api/login", fiber.Map{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", errorMessage(t, body))
}

func TestRegister_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	status, body := ts.do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", errorMessage(t, body))
}

func TestSearchUsers(t *testing.T) {
	ts := newTestServer(t)
	testutil.CreateUser(t, ts.db, "alice")
	testutil.CreateUser(t, ts.db, "malice")
	testutil.CreateUser(t, ts.db, "bob")

	status, body := ts.doJSON(t, http.MethodGet, "/api/users/search/ALI", nil)
	require.Equal(t, http.StatusOK, status)
	users := decode[[]models.User](t, body)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "malice", users[1].Username)

	status, body = ts.doJSON(t, http.MethodGet, "/api/users/search/zzz", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))
}

func TestGetUserProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")

	status, _ := ts.doJSON(t, http.MethodPost, "/api/follow", fiber.Map{"followerId": bob.ID, "followingId": alice.ID})
	require.Equal(t, http.StatusCreated, status)
	status, body := ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{"userId": alice.ID, "content": "hi"})
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	status, _ = ts.doJSON(t, http.MethodPost, "/api/likes", fiber.Map{"userId": bob.ID, "postId": post.ID})
	require.Equal(t, http.StatusCreated, status)

	status, body = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/users/%d?viewerId=%d", alice.ID, bob.ID), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	profile := decode[models.Profile](t, body)
	assert.Equal(t, "alice", profile.Username)
	assert.EqualValues(t, 1, profile.PostsCount)
	assert.EqualValues(t, 1, profile.FollowersCount)
	assert.EqualValues(t, 0, profile.FollowingCount)
	require.Len(t, profile.Posts, 1)
	assert.True(t, profile.Posts[0].IsLiked)
	assert.EqualValues(t, 1, profile.Posts[0].Likes)

	status, body = ts.doJSON(t, http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID format", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodGet, "/api/users/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", errorMessage(t, body))
}

func TestFollowLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	edge := fiber.Map{"followerId": alice.ID, "followingId": bob.ID}
	statusPath := fmt.Sprintf("/api/follow/status/%d/%d", alice.ID, bob.ID)

	status, body := ts.doJSON(t, http.MethodPost, "/api/follow", edge)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.JSONEq(t, `{"message":"Followed successfully"}`, string(body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/follow", edge)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Already following this user", errorMessage(t, body))

	_, body = ts.doJSON(t, http.MethodGet, statusPath, nil)
	assert.JSONEq(t, `{"isFollowing":true}`, string(body))

	status, body = ts.doJSON(t, http.MethodDelete, "/api/follow", edge)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Unfollowed successfully"}`, string(body))

	_, body = ts.doJSON(t, http.MethodGet, statusPath, nil)
	assert.JSONEq(t, `{"isFollowing":false}`, string(body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/follow", fiber.Map{"followerId": alice.ID, "followingId": alice.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot follow yourself", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/follow", fiber.Map{"followerId": "x1", "followingId": bob.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID format", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodGet, "/api/follow/status/1/zero", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid following ID format", errorMessage(t, body))
}

func TestCreatePost_JSONText(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")

	status, body := ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{
		"userId": fmt.Sprint(alice.ID), "content": "hello",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	assert.Equal(t, models.PostTypeText, post.Type)
	assert.Nil(t, post.Image)
	require.NotNil(t, post.User)
	assert.Equal(t, "alice", post.User.Username)

	status, body = ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{"userId": alice.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User ID and content are required", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{"userId": 999, "content": "ghost"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", errorMessage(t, body))
}

func TestCreatePost_MultipartImage(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")

	req := multipartRequest(t, map[string]string{
		"userId":  fmt.Sprint(alice.ID),
		"content": "look",
		"type":    "image",
	}, &formFile{name: "pic.png", contentType: "image/png", content: testutil.TinyPNG(t, 2, 2)})

	status, body := ts.do(t, req)
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	assert.Equal(t, models.PostTypeImage, post.Type)
	require.NotNil(t, post.Image)
	assert.Equal(t, "https://img.example.com/socialmedia_posts/stub-1.png", *post.Image)

	uploads, _ := ts.uploader.Calls()
	assert.Equal(t, 1, uploads)
}

func TestCreatePost_RejectsBadImagesBeforeUpload(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	fields := map[string]string{"userId": fmt.Sprint(alice.ID), "content": "x", "type": "image"}

	tests := []struct {
		name string
		file formFile
		msg  string
	}{
		{
			name: "wrong extension",
			file: formFile{name: "doc.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4")},
		},
		{
			name: "too large",
			file: formFile{name: "big.png", contentType: "image/png", content: append(testutil.TinyPNG(t, 1, 1), make([]byte, 5*1024*1024)...)},
			msg:  "Image exceeds the 5MB limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := tt.file
			status, body := ts.do(t, multipartRequest(t, fields, &file))
			assert.Equal(t, http.StatusBadRequest, status)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, errorMessage(t, body))
			}
		})
	}

	uploads, _ := ts.uploader.Calls()
	assert.Zero(t, uploads)

	var count int64
	require.NoError(t, ts.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePost_UploadFailure(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	ts.uploader.UploadErr = testutil.ErrUpstream

	req := multipartRequest(t, map[string]string{"userId": fmt.Sprint(alice.ID), "content": "x"},
		&formFile{name: "pic.png", contentType: "image/png", content: testutil.TinyPNG(t, 1, 1)})

	status, body := ts.do(t, req)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Image upload failed", errorMessage(t, body))
	assert.NotContains(t, string(body), testutil.ErrUpstream.Error())
}

func TestGetFeed(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	carol := testutil.CreateUser(t, ts.db, "carol")

	_, _ = ts.doJSON(t, http.MethodPost, "/api/follow", fiber.Map{"followerId": alice.ID, "followingId": bob.ID})
	for _, p := range []struct {
		user    uint
		content string
	}{{alice.ID, "mine"}, {bob.ID, "followed"}, {carol.ID, "stranger"}} {
		status, body := ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{"userId": p.user, "content": p.content})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	status, body := ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/posts/feed/%d", alice.ID), nil)
	require.Equal(t, http.StatusOK, status)
	feed := decode[[]models.Post](t, body)
	require.Len(t, feed, 2)
	assert.Equal(t, "followed", feed[0].Content)
	assert.Equal(t, "mine", feed[1].Content)

	status, body = ts.doJSON(t, http.MethodGet, "/api/posts/feed/12345", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	status, body = ts.doJSON(t, http.MethodGet, "/api/posts/feed/-1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID format", errorMessage(t, body))
}

func TestIDsBeyondInt64AreMalformed(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")

	status, body := ts.doJSON(t, http.MethodPost, "/api/likes",
		fiber.Map{"userId": alice.ID, "postId": uint64(math.MaxUint64)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID format", errorMessage(t, body))

	status, body = ts.do(t, multipartRequest(t, map[string]string{
		"userId":  "9223372036854775808",
		"content": "overflow",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID format", errorMessage(t, body))
}

func TestToggleLike(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	status, body := ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{"userId": alice.ID, "content": "like me"})
	require.Equal(t, http.StatusCreated, status)
	post := decode[models.Post](t, body)
	like := fiber.Map{"userId": alice.ID, "postId": post.ID}
	statusPath := fmt.Sprintf("/api/likes/status/%d/%d", alice.ID, post.ID)

	status, body = ts.doJSON(t, http.MethodPost, "/api/likes", like)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"message":"Post liked","liked":true}`, string(body))

	_, body = ts.doJSON(t, http.MethodGet, statusPath, nil)
	assert.JSONEq(t, `{"isLiked":true}`, string(body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/likes", like)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Post unliked","liked":false}`, string(body))

	_, body = ts.doJSON(t, http.MethodGet, statusPath, nil)
	assert.JSONEq(t, `{"isLiked":false}`, string(body))

	status, body = ts.doJSON(t, http.MethodPost, "/api/likes", fiber.Map{"userId": alice.ID, "postId": 999})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", errorMessage(t, body))
}

func TestComments(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	status, body := ts.doJSON(t, http.MethodPost, "/api/posts", fiber.Map{"userId": alice.ID, "content": "talk"})
	require.Equal(t, http.StatusCreated, status)
	post := decode[models.Post](t, body)

	for _, c := range []struct {
		user    uint
		content string
	}{{bob.ID, "first"}, {alice.ID, "second"}} {
		status, body = ts.doJSON(t, http.MethodPost, "/api/comments", fiber.Map{
			"userId": c.user, "postId": post.ID, "content": c.content,
		})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	status, body = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/comments/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, status)
	comments := decode[[]models.Comment](t, body)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	require.NotNil(t, comments[0].User)
	assert.Equal(t, "bob", comments[0].User.Username)
	assert.Equal(t, "second", comments[1].Content)

	status, body = ts.doJSON(t, http.MethodPost, "/api/comments", fiber.Map{"userId": bob.ID, "postId": post.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User ID, post ID and content are required", errorMessage(t, body))

	status, body = ts.doJSON(t, http.MethodGet, "/api/comments/oops", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid post ID format", errorMessage(t, body))
}
