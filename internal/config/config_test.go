package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Env:              "development",
		Port:             "8375",
		DBPassword:       "secure-password",
		DBSSLMode:        "disable",
		ImageStore:       ImageStoreLocal,
		UploadDir:        "./uploads",
		ImageMaxUploadMB: 5,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateImageStore(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"local with upload dir", func(c *Config) {}, false},
		{"local without upload dir", func(c *Config) { c.UploadDir = "" }, true},
		{"cloudinary without credentials", func(c *Config) { c.ImageStore = ImageStoreCloudinary }, true},
		{"cloudinary with credentials", func(c *Config) {
			c.ImageStore = ImageStoreCloudinary
			c.CloudinaryCloudName = "demo"
			c.CloudinaryAPIKey = "key"
			c.CloudinaryAPISecret = "secret"
		}, false},
		{"unknown store", func(c *Config) { c.ImageStore = "s3" }, true},
		{"negative upload size", func(c *Config) { c.ImageMaxUploadMB = -1 }, true},
		{"sample ratio out of range", func(c *Config) { c.TracingSampleRatio = 1.5 }, true},
		{"missing port", func(c *Config) { c.Port = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_MaxUploadBytes(t *testing.T) {
	c := &Config{ImageMaxUploadMB: 5}
	assert.Equal(t, int64(5*1024*1024), c.MaxUploadBytes())

	c.ImageMaxUploadMB = 0
	assert.Equal(t, int64(5*1024*1024), c.MaxUploadBytes())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("IMAGE_STORE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("IMAGE_STORE", " LOCAL ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, ImageStoreLocal, c.ImageStore)
	assert.Equal(t, "socialmedia_posts", c.CloudinaryFolder)
	assert.Equal(t, 5, c.ImageMaxUploadMB)
}

func TestLoadConfig_DefaultsToLocalStoreWithoutCredentials(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer viper.Reset()

	os.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, ImageStoreLocal, c.ImageStore)
	assert.Equal(t, "8375", c.Port)
}
