package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/api_gateway/middleware"
	"github.com/fin-api-ledger/internal/api_gateway/service"
	"github.com/fin-api-ledger/internal/domain/statement"
)

// StatementHandler handles ledger requests for the authenticated account
type StatementHandler struct {
	statementService service.StatementService
	logger           *slog.Logger
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(logger *slog.Logger, statementService service.StatementService) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		logger:           logger,
	}
}

// Deposit credits the caller's account
func (h *StatementHandler) Deposit(c *gin.Context) {
	h.createOperation(c, statement.OperationTypeDeposit)
}

// Withdraw debits the caller's account, failing with INSUFFICIENT_FUNDS when the balance cannot cover it
func (h *StatementHandler) Withdraw(c *gin.Context) {
	h.createOperation(c, statement.OperationTypeWithdraw)
}

func (h *StatementHandler) createOperation(c *gin.Context, opType statement.OperationType) {
	accountID, ok := h.caller(c)
	if !ok {
		return
	}

	req, ok := h.bindStatementRequest(c)
	if !ok {
		return
	}

	st, err := h.statementService.CreateStatement(c.Request.Context(), &service.CreateStatementRequest{
		AccountID:   accountID,
		Amount:      req.Amount,
		Description: req.Description,
		Type:        opType,
	})
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapStatementToResponse(st))
}

// Transfer moves funds from the caller to the user named in the path
func (h *StatementHandler) Transfer(c *gin.Context) {
	senderID, ok := h.caller(c)
	if !ok {
		return
	}

	recipientParam := c.Param("user_id")
	recipientID, err := uuid.Parse(recipientParam)
	if err != nil {
		h.logger.Warn("Invalid recipient ID", "user_id", recipientParam, "error", err)
		RespondBadRequest(c, "Invalid recipient ID")
		return
	}

	req, ok := h.bindStatementRequest(c)
	if !ok {
		return
	}

	st, err := h.statementService.CreateTransfer(c.Request.Context(), &service.CreateTransferRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapStatementToResponse(st))
}

// Balance returns the caller's derived balance and every statement it was computed from
func (h *StatementHandler) Balance(c *gin.Context) {
	accountID, ok := h.caller(c)
	if !ok {
		return
	}

	result, err := h.statementService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBalanceToResponse(result))
}

// GetByID returns one statement owned by the caller
func (h *StatementHandler) GetByID(c *gin.Context) {
	accountID, ok := h.caller(c)
	if !ok {
		return
	}

	idParam := c.Param("statement_id")
	statementID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid statement ID", "statement_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid statement ID")
		return
	}

	st, err := h.statementService.GetStatement(c.Request.Context(), accountID, statementID)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapStatementToResponse(st))
}

// History pages through the projected statement history, newest first
func (h *StatementHandler) History(c *gin.Context) {
	accountID, ok := h.caller(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.statementService.GetStatementHistory(c.Request.Context(), accountID, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	items := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, mapHistoryEntryToResponse(entry, accountID))
	}

	RespondWithPaginatedData(c, http.StatusOK, items, pagination.Page, pagination.PerPage, int(total))
}

func (h *StatementHandler) caller(c *gin.Context) (uuid.UUID, bool) {
	accountID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return uuid.Nil, false
	}
	return accountID, true
}

func (h *StatementHandler) bindStatementRequest(c *gin.Context) (*StatementRequest, bool) {
	var req StatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return nil, false
	}
	if !req.Amount.IsPositive() {
		RespondBadRequest(c, statement.ErrInvalidAmount.Error())
		return nil, false
	}
	return &req, true
}
