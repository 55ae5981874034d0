package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, out_of_coverage, provider_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps pipeline errors onto HTTP statuses.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch domain.KindOf(err) {
	case domain.KindInvalidPath:
		return newError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	case domain.KindUnsupportedConversion:
		return newError(c, fiber.StatusBadRequest, "unsupported_conversion", err.Error())
	case domain.KindOutOfCoverage:
		return newError(c, fiber.StatusUnprocessableEntity, "out_of_coverage", err.Error())
	case domain.KindNoValidData:
		return newError(c, fiber.StatusUnprocessableEntity, "no_valid_data", err.Error())
	case domain.KindProviderError:
		return newError(c, fiber.StatusBadGateway, "provider_error", err.Error())
	case domain.KindConversionFailure:
		return newError(c, fiber.StatusBadGateway, "conversion_failure", err.Error())
	}
	if errors.Is(err, usecases.ErrUnknownProvider) {
		return errBadRequest(c, err.Error())
	}
	logging.FromContext(c.UserContext()).Error("unhandled error", "error", err)
	return errInternal(c, "internal error")
}
