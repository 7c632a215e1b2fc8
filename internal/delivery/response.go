package delivery

import (
	"errors"
	"net/http"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuantityOutOfRange),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredential),
		errors.Is(err, domain.ErrExpiredCredential),
		errors.Is(err, domain.ErrNotAuthenticated),
		domain.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRemoteCall):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
