package media

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudinary struct {
	uploadParams  uploader.UploadParams
	uploadResult  *uploader.UploadResult
	uploadErr     error
	destroyed     []string
	destroyResult *uploader.DestroyResult
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = params
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResult, nil
}

func (f *fakeCloudinary) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	if f.destroyResult != nil {
		return f.destroyResult, nil
	}
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryUploader_Upload(t *testing.T) {
	fake := &fakeCloudinary{uploadResult: &uploader.UploadResult{
		PublicID:  "socialmedia_posts/abc",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/socialmedia_posts/abc.png",
	}}
	u := newCloudinaryUploader(fake, "socialmedia_posts")

	up, err := u.Upload(context.Background(), File{Filename: "a.png", Content: tinyPNG(t)})
	require.NoError(t, err)
	assert.Equal(t, "socialmedia_posts", fake.uploadParams.Folder)
	assert.NotEmpty(t, fake.uploadParams.PublicID)
	assert.Equal(t, "socialmedia_posts/abc", up.PublicID)
	assert.Contains(t, up.URL, "https://")
}

func TestCloudinaryUploader_UploadErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		u := newCloudinaryUploader(&fakeCloudinary{uploadErr: errors.New("dial tcp")}, "f")
		_, err := u.Upload(context.Background(), File{Filename: "a.png"})
		assert.ErrorContains(t, err, "dial tcp")
	})

	t.Run("api error", func(t *testing.T) {
		u := newCloudinaryUploader(&fakeCloudinary{uploadResult: &uploader.UploadResult{
			Error: api.ErrorResp{Message: "Invalid Signature"},
		}}, "f")
		_, err := u.Upload(context.Background(), File{Filename: "a.png"})
		assert.ErrorContains(t, err, "Invalid Signature")
	})

	t.Run("empty url", func(t *testing.T) {
		u := newCloudinaryUploader(&fakeCloudinary{uploadResult: &uploader.UploadResult{}}, "f")
		_, err := u.Upload(context.Background(), File{Filename: "a.png"})
		assert.Error(t, err)
	})
}

func TestCloudinaryUploader_Delete(t *testing.T) {
	fake := &fakeCloudinary{}
	u := newCloudinaryUploader(fake, "f")
	require.NoError(t, u.Delete(context.Background(), "f/abc"))
	assert.Equal(t, []string{"f/abc"}, fake.destroyed)

	fake.destroyResult = &uploader.DestroyResult{Result: "error"}
	assert.Error(t, u.Delete(context.Background(), "f/abc"))
}
