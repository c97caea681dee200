// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package logger provides request-scoped logging for the Cirrus SDK,
// based on logrus. Every outbound platform request gets a request ID
// which is carried through the context.
package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKeyLoggerType struct{}

var contextKeyLogger = &contextKeyLoggerType{}

const (
	requestIDKey = "requestID"
	tenantKey    = "tenant"
)

// Init sets up the time formatter and level for all log statements.
func Init(level logrus.Level) {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)
}

// Default returns a logger without a request ID.
func Default() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

// ContextWithLogger returns a context carrying a logger with a fresh
// request ID. If the context already has a logger, it is returned as is.
func ContextWithLogger(ctx context.Context) (context.Context, *logrus.Entry) {
	if ctx == nil {
		ctx = context.Background()
	} else if rlog, ok := ctx.Value(contextKeyLogger).(*logrus.Entry); ok {
		return ctx, rlog
	}
	id, _ := uuid.NewUUID()
	rlog := logrus.WithField(requestIDKey, id.String())
	return context.WithValue(ctx, contextKeyLogger, rlog), rlog
}

// ContextWithTenant returns a context carrying a logger tagged with the
// tenant ID, for multi-tenant services handling several tenants at once.
func ContextWithTenant(ctx context.Context, tenant string) (context.Context, *logrus.Entry) {
	ctx, rlog := ContextWithLogger(ctx)
	rlog = rlog.WithField(tenantKey, tenant)
	return context.WithValue(ctx, contextKeyLogger, rlog), rlog
}

// FromContext returns the logger stored in the context, or the default
// logger if there is none.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if rlog, ok := ctx.Value(contextKeyLogger).(*logrus.Entry); ok {
			return rlog
		}
	}
	return Default()
}

// AddRequestID installs a middleware on the router which ensures that
// every inbound request context carries a logger with a request ID.
func AddRequestID(router *mux.Router) {
	router.Use(func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := ContextWithLogger(r.Context())
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	})
}
