package controllers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/talentgrid/gateway/pkg/constants"
)

// requestLogger returns the request-scoped logger, or nil when the logging
// middleware is not installed. Proxy handlers must not fail just to log.
func requestLogger(ctx context.Context) *logrus.Entry {
	switch v := ctx.Value(constants.LoggerKey).(type) {
	case *logrus.Entry:
		return v
	case *logrus.Logger:
		return logrus.NewEntry(v)
	default:
		return nil
	}
}

func logRequestError(r *http.Request, err error, message string) {
	if entry := requestLogger(r.Context()); entry != nil {
		entry.WithError(err).Error(message)
	}
}
