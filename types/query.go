package types

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type SearchParams struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"omitempty,gte=1"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *SearchParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

type UploadResponse struct {
	DocumentID  string         `json:"document_id"`
	Filename    string         `json:"filename"`
	TotalChunks int            `json:"total_chunks"`
	Status      DocumentStatus `json:"status"`
}

type ListResponse struct {
	Documents []Document `json:"documents"`
}

type DeleteResponse struct {
	DocumentID    string `json:"document_id"`
	PointsRemoved int    `json:"points_removed"`
}

type SearchResponse struct {
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	Timestamp time.Time      `json:"timestamp"`
}
