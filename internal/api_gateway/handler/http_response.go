package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fin-api-ledger/internal/api_gateway/middleware"
	"github.com/fin-api-ledger/internal/api_gateway/service"
	"github.com/fin-api-ledger/internal/domain/statement"
	"github.com/fin-api-ledger/internal/domain/user"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo carries pagination for list endpoints
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func newMeta(page, perPage, totalItems int) *MetaInfo {
	pages := 0
	if perPage > 0 {
		pages = (totalItems + perPage - 1) / perPage
	}
	return &MetaInfo{Page: page, PerPage: perPage, TotalPages: pages, TotalItems: totalItems}
}

func respond(c *gin.Context, status int, r Response) {
	r.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, r)
}

func RespondWithData(c *gin.Context, status int, data any) {
	respond(c, status, Response{Data: data})
}

func RespondWithError(c *gin.Context, status int, code, message string) {
	respond(c, status, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondWithPaginatedData(c *gin.Context, status int, data any, page, perPage, totalItems int) {
	respond(c, status, Response{Data: data, Meta: newMeta(page, perPage, totalItems)})
}

func RespondOK(c *gin.Context, data any) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data any) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// errorRule maps one family of domain errors onto a status and error code.
// An empty message echoes the error text.
type errorRule struct {
	match   func(error) bool
	status  int
	code    string
	message string
}

func is(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

func isBalanceError(err error) bool {
	var target *service.BalanceError
	return errors.As(err, &target)
}

func isDuplicateEmail(err error) bool {
	var target user.ErrDuplicateEmail
	return errors.As(err, &target)
}

// errorRules is ordered: BalanceError wraps ErrUserNotFound and must match first
var errorRules = []errorRule{
	{
		match:   isBalanceError,
		status:  http.StatusNotFound,
		code:    "BALANCE_ERROR",
		message: "Unable to get balance: user not found",
	},
	{match: is(user.ErrUserNotFound{}), status: http.StatusNotFound, code: "USER_NOT_FOUND", message: "User not found"},
	{match: is(statement.ErrStatementNotFound{}), status: http.StatusNotFound, code: "STATEMENT_NOT_FOUND", message: "Statement not found"},
	{match: is(statement.ErrInsufficientFunds), status: http.StatusBadRequest, code: "INSUFFICIENT_FUNDS", message: "Insufficient funds"},
	{
		match: is(
			statement.ErrInvalidAmount,
			statement.ErrInvalidOperationType,
			statement.ErrSelfTransfer,
			service.ErrInvalidPagination,
			user.ErrEmptyName,
			user.ErrEmptyEmail,
			user.ErrEmptyPassword,
		),
		status: http.StatusBadRequest,
		code:   "BAD_REQUEST",
	},
	{
		match:   isDuplicateEmail,
		status:  http.StatusConflict,
		code:    "CONFLICT",
		message: "User with this email already exists",
	},
	{match: is(user.ErrIncorrectCredentials), status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "Incorrect email or password"},
}

// RespondServiceError maps a service or domain error onto the error envelope.
// Unknown errors are logged and reported as 500 without leaking details.
func RespondServiceError(c *gin.Context, logger *slog.Logger, err error) {
	for _, rule := range errorRules {
		if !rule.match(err) {
			continue
		}
		message := rule.message
		if message == "" {
			message = err.Error()
		}
		RespondWithError(c, rule.status, rule.code, message)
		return
	}

	logger.Error("Request failed", "path", c.FullPath(), "error", err, "correlation_id", middleware.GetCorrelationID(c))
	RespondInternalError(c)
}
