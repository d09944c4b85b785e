package api

import (
	"errors"
	"fmt"
	"time"

	"docvector/types"

	"github.com/gofiber/fiber/v2"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiError Error
	if errors.As(err, &apiError) {
		return c.Status(apiError.Code).JSON(apiError)
	}

	var valError types.ValidationError
	if errors.As(err, &valError) {
		return c.Status(valError.Status).JSON(valError)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(NewError(fiberError.Code, fiberError.Message))
	}

	apiError = NewError(statusFromError(err), err.Error())
	curTime := time.Now()
	fmt.Printf("%s Request failed with code %d and message: %s\n", &curTime, apiError.Code, apiError.Message)
	return c.Status(apiError.Code).JSON(apiError)
}

// statusFromError maps core error kinds to HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrInvalidConfiguration):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrExtractionFailed):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, types.ErrCollectionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, types.ErrDimensionMismatch),
		errors.Is(err, types.ErrConfigurationConflict):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

type Error struct {
	Code    int    `json:"code"`
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

func ErrInvalidID() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid id given",
	}
}

func ErrNotFound[T any](arg T, resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}
