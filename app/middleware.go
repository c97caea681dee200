// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package app

import (
	"context"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/cirrus"
	"github.com/relabs-tech/cirrus/core/logger"
)

type contextKeyClientType struct{}

var contextKeyClient = &contextKeyClientType{}

// ContextWithClient returns a context carrying a tenant-bound client.
func ContextWithClient(ctx context.Context, client *cirrus.Client) context.Context {
	return context.WithValue(ctx, contextKeyClient, client)
}

// ClientFromContext returns the tenant-bound client stored in the
// context, or nil if there is none.
func ClientFromContext(ctx context.Context) *cirrus.Client {
	client, _ := ctx.Value(contextKeyClient).(*cirrus.Client)
	return client
}

// Middleware returns a mux middleware which resolves the tenant from
// the inbound Authorization header and stores a tenant-bound client in
// the request context, together with a tenant-tagged logger. Requests
// of unsubscribed tenants are rejected with http.StatusUnauthorized.
func (a *MultiTenantApp) Middleware() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			tenant, err := TenantID(authorization)
			if err != nil {
				http.Error(w, "invalid authorization", http.StatusUnauthorized)
				return
			}
			instance, err := a.TenantInstance(tenant)
			if err != nil {
				logger.FromContext(r.Context()).WithError(err).
					Warningf("no instance for tenant %s", tenant)
				http.Error(w, "unknown tenant", http.StatusUnauthorized)
				return
			}
			ctx, _ := logger.ContextWithTenant(r.Context(), tenant)
			ctx = ContextWithClient(ctx, instance)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Serve runs the microservice's HTTP endpoint with request ID and
// access logging. Blocks until the listener fails.
func Serve(addr string, router *mux.Router) error {
	logger.AddRequestID(router)
	logger.Default().Infoln("listening on", addr)
	return http.ListenAndServe(addr, handlers.CombinedLoggingHandler(os.Stdout, router))
}
