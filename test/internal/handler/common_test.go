package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go-gin-course-booking/internal/middleware"

	"github.com/gin-gonic/gin"
)

var (
	InvalidJSON = `{"invalid": json}`
)

// fakeAuth 測試用：直接注入使用者身分，不驗 token
func fakeAuth(userID int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Set(middleware.ContextRoleKey, role)
		c.Next()
	}
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}
