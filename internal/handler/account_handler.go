package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ckumar010398/accounts-ms/internal/cqrs"
	"github.com/ckumar010398/accounts-ms/internal/middleware"
	"github.com/ckumar010398/accounts-ms/internal/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) error
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (bool, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) (bool, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	FetchAccount(context.Context, cqrs.FetchAccountQuery) (*models.CustomerView, error)
}

// Info is the static service information served by the info endpoints.
type Info struct {
	BuildVersion string
	Contact      models.ContactInfo
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
	info     Info
}

// ResponseDto is the body of every successful write.
type ResponseDto struct {
	StatusCode string `json:"statusCode"`
	StatusMsg  string `json:"statusMsg"`
}

type CreateAccountRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=30"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber" validate:"required,mobilenumber"`
}

type MobileNumberRequest struct {
	MobileNumber string `form:"mobileNumber" validate:"required,mobilenumber"`
}

const (
	status201  = "201"
	message201 = "Account created successfully"
	status200  = "200"
	message200 = "Request processed successfully"
	status417  = "417"
	message417 = "Operation failed. Please try again or contact Dev team"
)

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, info Info) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries, info: info}
}

// RegisterRoutes mounts the account API on the given group.
func (h *AccountHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/create", h.CreateAccount)
	api.GET("/fetch", h.FetchAccount)
	api.PUT("/update", h.UpdateAccount)
	api.DELETE("/delete", h.DeleteAccount)
	api.GET("/build-info", h.BuildInfo)
	api.GET("/contact-info", h.ContactInfo)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ResponseDto{StatusCode: status201, StatusMsg: message201})
}

func (h *AccountHandler) FetchAccount(c *gin.Context) {
	req, ok := bindMobileNumber(c)
	if !ok {
		return
	}

	view, err := h.queries.FetchAccount(c.Request.Context(), cqrs.FetchAccountQuery{MobileNumber: req.MobileNumber})
	if err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req models.CustomerView
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	updated, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Account:      req.Account,
	})
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	respondWithOutcome(c, updated)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	req, ok := bindMobileNumber(c)
	if !ok {
		return
	}

	deleted, err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{MobileNumber: req.MobileNumber})
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	respondWithOutcome(c, deleted)
}

func (h *AccountHandler) BuildInfo(c *gin.Context) {
	c.String(http.StatusOK, h.info.BuildVersion)
}

func (h *AccountHandler) ContactInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.info.Contact)
}

func bindMobileNumber(c *gin.Context) (MobileNumberRequest, bool) {
	var req MobileNumberRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return req, false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return req, false
	}
	return req, true
}

func respondWithOutcome(c *gin.Context, ok bool) {
	if !ok {
		c.JSON(http.StatusExpectationFailed, ResponseDto{StatusCode: status417, StatusMsg: message417})
		return
	}
	c.JSON(http.StatusOK, ResponseDto{StatusCode: status200, StatusMsg: message200})
}

func respondWithDomainError(c *gin.Context, err error) {
	var duplicate *models.DuplicateEntityError
	var notFound *models.NotFoundError
	switch {
	case errors.As(err, &duplicate):
		middleware.RespondWithError(c, http.StatusBadRequest, duplicate.Error())
	case errors.As(err, &notFound):
		middleware.RespondWithError(c, http.StatusNotFound, notFound.Error())
	default:
		log.Printf("Request %s failed: %v", middleware.GetRequestID(c), err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to process request")
	}
}
