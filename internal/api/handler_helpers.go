package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/response"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(msg + ": " + err.Error())
	case http.StatusNotFound:
		resp = response.NotFound(msg + ": " + err.Error())
	case http.StatusInternalServerError:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

// HandleTypedError maps the pipeline's error taxonomy to HTTP statuses so the
// UI can message store, model and empty-data failures differently.
func HandleTypedError(c *gin.Context, logger internal.Logger, err error) {
	switch {
	case errors.Is(err, internal.ErrInvalidRange):
		HandleError(c, logger, err, http.StatusBadRequest, "Invalid range")
	case errors.Is(err, internal.ErrEmptyInput):
		HandleError(c, logger, err, http.StatusNotFound, "No insight available")
	case errors.Is(err, internal.ErrStoreUnavailable):
		HandleError(c, logger, err, http.StatusServiceUnavailable, "Metric store unavailable")
	case errors.Is(err, internal.ErrModelUnavailable):
		HandleError(c, logger, err, http.StatusBadGateway, "Insight generation failed")
	case errors.Is(err, internal.ErrTimeout):
		HandleError(c, logger, err, http.StatusGatewayTimeout, "Insight generation timed out")
	default:
		HandleError(c, logger, err, http.StatusInternalServerError, "Internal error")
	}
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, response.Success(data, meta))
}

func HandleCreated(c *gin.Context, logger internal.Logger, data interface{}) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Created", requestID)
	c.JSON(http.StatusCreated, response.Success(data, nil))
}
