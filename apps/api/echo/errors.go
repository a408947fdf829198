package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
)

// Error codes
const (
	codeValidation   = "validation_error"
	codeInvalidSeat  = "invalid_seat"
	codeNotFound     = "not_found"
	codeSeatConflict = "seat_conflict"
	codeInternal     = "internal_error"
)

type (
	// Envelope wraps every response.
	Envelope struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data,omitempty"`
		Error   *ErrorBody  `json:"error,omitempty"`
	}

	ErrorBody struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  []core.FieldError `json:"fields,omitempty"`
	}
)

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, Envelope{Success: true, Data: data})
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeSeatConflict
	case http.StatusInternalServerError:
		return codeInternal
	}
	if status >= 400 && status < 500 {
		return codeValidation
	}
	return codeInternal
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that converts our errors into an Envelope.
// signalShutdown is called in order to gracefully shutdown the Server whenever a shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			status  int
			body    = new(ErrorBody)
			httpErr *echo.HTTPError
			valErr  *core.ValidationError
			vErrs   validator.ValidationErrors
		)

		switch {
		case errors.As(err, &vErrs):
			valErr, _ = core.TranslateValidationErrors(vErrs, translator).(*core.ValidationError)
			status, body.Code, body.Message, body.Fields = http.StatusBadRequest, codeValidation, valErr.Error(), valErr.Fields
		case errors.As(err, &valErr):
			status, body.Code, body.Message, body.Fields = http.StatusBadRequest, codeValidation, valErr.Error(), valErr.Fields
		case errors.Is(err, seating.ErrInvalidSeat):
			status, body.Code, body.Message = http.StatusBadRequest, codeInvalidSeat, err.Error()
		case seating.IsNotFound(err):
			status, body.Code, body.Message = http.StatusNotFound, codeNotFound, err.Error()
		case errors.Is(err, seating.ErrSeatConflict):
			status, body.Code, body.Message = http.StatusConflict, codeSeatConflict, err.Error()
		case errors.As(err, &httpErr):
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			status, body.Code, body.Message = httpErr.Code, httpErrorCode(httpErr.Code), fmt.Sprint(httpErr.Message)
		default: // any other error is a server error
			status, body.Code = http.StatusInternalServerError, codeInternal
			msg := http.StatusText(http.StatusInternalServerError)
			body.Message = msg
			if ctx.Echo().Debug {
				body.Message = err.Error()
			}
			logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Request().URL.Path,
			})

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(status)
			} else {
				err = ctx.JSON(status, Envelope{Success: false, Error: body})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
