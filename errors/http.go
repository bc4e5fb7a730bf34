package errors

import "net/http"

var httpStatus = map[ErrorCode]int{
	ErrCodeMissingArgument: http.StatusBadRequest,
	ErrCodeInvalidArgument: http.StatusBadRequest,
	ErrCodeNoElements:      http.StatusNotFound,
	ErrCodeMoreThanOne:     http.StatusConflict,
	ErrCodeOverflow:        http.StatusUnprocessableEntity,
	ErrCodeSourceFailed:    http.StatusBadGateway,
	ErrCodeDecode:          http.StatusBadGateway,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// HTTPStatus returns the status code an HTTP surface should answer with.
func (e *AppError) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body written for an AppError.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody holds the public fields of an AppError. Cause is never exposed.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts the error to its JSON body.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: e.Code, Message: e.Message, Details: e.Details}}
}

// Respond returns the status and body for any error. Errors that are not
// AppErrors become INTERNAL_ERROR.
func Respond(err error) (int, ErrorResponse) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = Internal(err)
	}
	return appErr.HTTPStatus(), appErr.ToResponse()
}
