package middleware

import (
	stderrors "errors"

	"github.com/siteplane/siteplane-go-pkg/errors"
	"github.com/siteplane/siteplane-go-pkg/logger"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// NewErrorHandler returns a Fiber ErrorHandler that maps the error
// taxonomy onto HTTP responses. Fiber's own errors keep their status;
// everything else goes through errors.ToHTTPResponse, so internal
// detail and tenant mismatches never reach a client.
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if stderrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"code": fiberErr.Code,
				"msg":  fiberErr.Message,
			})
		}

		statusCode, body := errors.ToHTTPResponse(err)
		if log != nil {
			if statusCode >= 500 {
				log.WithContext(c.Context()).Error("unhandled error",
					zap.Error(err),
					zap.String("path", c.Path()),
				)
			} else {
				log.WithContext(c.Context()).Warn("request failed",
					zap.Error(err),
					zap.String("path", c.Path()),
					zap.Int("status", statusCode),
				)
			}
		}
		return c.Status(statusCode).JSON(body)
	}
}
