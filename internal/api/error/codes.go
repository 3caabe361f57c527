package error

import "net/http"

type ErrorCode string

const (
	UnknownError            ErrorCode = "unknown_error"
	InternalServerError     ErrorCode = "internal_server_error"
	BadRequest              ErrorCode = "bad_request"
	UnprocessibleEntity     ErrorCode = "unprocessible_entity"
	InvalidAccessToken      ErrorCode = "invalid_access_token"
	ExpiredAccessToken      ErrorCode = "expired_access_token"
	InvalidRefreshToken     ErrorCode = "invalid_refresh_token"
	ExpiredRefreshToken     ErrorCode = "expired_refresh_token"
	InsufficientPermissions ErrorCode = "insufficient_permissions"
	RecipeNotFound          ErrorCode = "recipe_not_found"
	RecipeNotOwned          ErrorCode = "recipe_not_owned"
	ImageNotFound           ErrorCode = "image_not_found"
	MissingCoverImage       ErrorCode = "missing_cover_image"
	InvalidUploadPolicy     ErrorCode = "invalid_upload_policy"
)

var errorCodeToStatusCode = map[ErrorCode]int{
	UnknownError:            0, // No error code - unknown
	InternalServerError:     http.StatusInternalServerError,
	BadRequest:              http.StatusBadRequest,
	UnprocessibleEntity:     http.StatusUnprocessableEntity,
	InvalidAccessToken:      http.StatusUnauthorized,
	ExpiredAccessToken:      http.StatusUnauthorized,
	InvalidRefreshToken:     http.StatusUnauthorized,
	ExpiredRefreshToken:     http.StatusUnauthorized,
	InsufficientPermissions: http.StatusForbidden,
	RecipeNotFound:          http.StatusNotFound,
	RecipeNotOwned:          http.StatusForbidden,
	ImageNotFound:           http.StatusUnprocessableEntity,
	MissingCoverImage:       http.StatusUnprocessableEntity,
	InvalidUploadPolicy:     http.StatusForbidden,
}

func (ec ErrorCode) StatusCode() int {
	return errorCodeToStatusCode[ec]
}

func (ec ErrorCode) String() string {
	return string(ec)
}
