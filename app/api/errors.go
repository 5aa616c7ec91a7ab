package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

const (
	msgNoFile          = "No selected file"
	msgInvalidFileType = "Invalid file type. Only PDF is supported."
	msgExtractFailed   = "Failed to extract text from PDF"
	msgGeneric         = "Something went wrong, please try again later!"
	msgNoQuestions     = "No questions provided"
	msgNoSummary       = "No summary available"
)

// ErrorHandler renders every error returned by a handler as {"error": msg}.
// Unknown errors become a generic 500 so internals never leak to callers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}

	slog.Default().Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrInternal())
}

type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrNoFile() Error {
	return NewError(fiber.StatusBadRequest, msgNoFile)
}

func ErrInvalidFileType() Error {
	return NewError(fiber.StatusBadRequest, msgInvalidFileType)
}

func ErrNoQuestions() Error {
	return NewError(fiber.StatusBadRequest, msgNoQuestions)
}

func ErrExtraction() Error {
	return NewError(fiber.StatusInternalServerError, msgExtractFailed)
}

func ErrInternal() Error {
	return NewError(fiber.StatusInternalServerError, msgGeneric)
}

func ErrNotFound() Error {
	return NewError(fiber.StatusNotFound, msgNoSummary)
}
