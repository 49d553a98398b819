package handler

import (
	"net/http"
	"strconv"

	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, apperrors.ErrInvalidInput, "Invalid request format")
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondError(c, http.StatusBadRequest, apperrors.ErrInvalidInput, "Invalid request format")
		return err
	}
	return nil
}

func ParamInt(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, apperrors.ErrInvalidInput, "Invalid path parameter")
		return 0, false
	}
	return id, true
}

// respondError 統一錯誤格式：{"error": {"code", "message"}}
func respondError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    apperrors.Code(err),
			"message": message,
		},
	})
}

func respondSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
