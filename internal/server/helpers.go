package server

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"

	"pulse/internal/media"
	"pulse/internal/middleware"
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const imageLocalsKey = "uploadImage"

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// The message is derived from the parameter name ("userId" -> "Invalid user ID format").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)+" format"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "followingId" -> "following ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// bodyID is an identifier in a request body. Clients send ids either as JSON
// numbers or as numeric strings; an empty string or null decodes to zero.
type bodyID uint

func (id *bodyID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if raw == "" || raw == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return errInvalidID
	}
	*id = bodyID(n)
	return nil
}

var errInvalidID = errors.New("invalid id")

// parseFormID parses a multipart form id. Blank means zero.
func parseFormID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return 0, errInvalidID
	}
	return uint(n), nil
}

// parseBody decodes a JSON body. On failure it writes a 400 and returns
// errResponseWritten.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, errInvalidID) {
			msg = "Invalid ID format"
		}
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(msg))
		return errResponseWritten
	}
	return nil
}

// mapServiceError converts a service error into an HTTP status. Errors that
// are not AppErrors are internal.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.StatusFor(appErr.Code)
	}
	return fiber.StatusInternalServerError
}

// respondServiceError writes a service error, logging the cause of 5xx responses.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"code", appErr.Code,
			"error", err,
		)
	}
	return models.RespondWithError(c, status, appErr)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// imageUpload reads an optional image file from a multipart form and
// validates it before the handler runs. A valid file is stored in Locals.
func (s *Server) imageUpload(field string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isMultipart(c) {
			return c.Next()
		}
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		headers := form.File[field]
		if len(headers) == 0 {
			return c.Next()
		}
		header := headers[0]

		src, err := header.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		defer func() { _ = src.Close() }()

		limit := s.config.MaxUploadBytes()
		content, err := io.ReadAll(io.LimitReader(src, limit+1))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}

		file := &media.File{
			Filename:    header.Filename,
			ContentType: header.Header.Get(fiber.HeaderContentType),
			Content:     content,
		}
		if err := media.ValidateImage(*file, limit); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}

		c.Locals(imageLocalsKey, file)
		return c.Next()
	}
}
