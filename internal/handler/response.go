// Package handler defines the HTTP handlers behind the routed endpoints.
// Every response uses a uniform envelope with a success flag and a
// human-readable message; repository internals and stack traces never
// reach a client.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// respond writes the success envelope with optional data.
func respond(c echo.Context, status int, message string, data interface{}) error {
	body := echo.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// fail writes the failure envelope.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// pathID parses the named path parameter as a non-zero numeric id.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n != 0
}
