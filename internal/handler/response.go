package handler

import "github.com/labstack/echo/v4"

// Every endpoint answers with the same envelope: {success, data?, error?}.
// Clients branch on the success flag first and only then on HTTP status,
// so both are kept consistent by the helpers below.

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respond writes a success envelope with the given status and payload.
func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// fail writes a failure envelope with the given status and message.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Error: msg})
}
