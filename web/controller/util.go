package controller

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/web/entity"
	"github.com/visioweb/askboard/web/service"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var formErr *entity.FormError
	switch {
	case errors.As(err, &formErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotConfirmed):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrAnswerMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// jsonMsg sends a JSON response with a message and error status.
func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

// jsonMsgObj sends msg and obj, or the error when err is not nil. Form errors carry the
// failing fields in obj; unexpected errors are logged and not shown to the client.
func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, entity.Msg{Success: true, Msg: msg, Obj: obj})
		return
	}

	status := errorStatus(err)
	m := entity.Msg{Success: false, Msg: err.Error()}
	var formErr *entity.FormError
	if errors.As(err, &formErr) {
		m.Obj = formErr.Fields
	}
	if status == http.StatusInternalServerError {
		logger.Warningf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		m.Msg = "internal server error"
	}
	c.JSON(status, m)
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// paramId reads a positive integer path parameter, answering 404 when it is not one.
func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		pureJsonMsg(c, http.StatusNotFound, false, "not found")
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// bindForm decodes the request body into form, answering 400 when it cannot.
func bindForm(c *gin.Context, form any) bool {
	if err := c.ShouldBind(form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, "invalid request: "+err.Error())
		return false
	}
	return true
}
