// Package wire holds the JSON request/response bodies exchanged between the
// client core and the recommendation API.
package wire

import (
	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
)

type GenerateOptionsRequest struct {
	GithubUsername string `json:"github_username"`
	domain.Params
	RegenerateInstructions string `json:"regenerate_instructions,omitempty"`
}

type GenerateOptionsResponse struct {
	Options []domain.Option `json:"options"`
}

type CreateFromOptionRequest struct {
	GithubUsername string `json:"github_username"`
	domain.Params
	SelectedOption domain.Option   `json:"selected_option"`
	AllOptions     []domain.Option `json:"all_options"`
}

type RevertRequest struct {
	VersionID    uuid.UUID `json:"version_id"`
	RevertReason string    `json:"revert_reason"`
}

type RefineKeywordsRequest struct {
	IncludeKeywords        []string `json:"include_keywords,omitempty"`
	ExcludeKeywords        []string `json:"exclude_keywords,omitempty"`
	RefinementInstructions string   `json:"refinement_instructions,omitempty"`
}

type UpdateContentRequest struct {
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ErrorBody is the error envelope every non-2xx response carries.
type ErrorBody struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Query parameter names for version comparison.
const (
	QueryVersionA = "version_a_id"
	QueryVersionB = "version_b_id"
)
