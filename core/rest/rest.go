// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package rest provides low-level access to the Cirrus platform REST API.

The client either talks to a remote platform instance via HTTP, or
directly to a mux router without marshalling HTTP. The router mode is
the tool of choice for unit tests against an in-process platform stub.
*/
package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/logger"
)

// ApplicationKeyHeader identifies the calling application in all
// requests, for subscription tracking purposes.
const ApplicationKeyHeader = "X-Cirrus-Application-Key"

// Client provides access to the platform REST API.
//
// The zero value is not usable, create instances with NewWithURL or
// NewWithRouter. The With* methods return modified copies, a Client is
// cheap to copy and safe for concurrent independent requests.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	baseURL    string
	tenant     string
	username   string
	password   string
	token      string
	ctx        context.Context

	defaultHeaders map[string]string
}

// NewWithURL creates a client for a remote platform instance.
//
// Add credentials with WithBasicAuth or WithToken.
func NewWithURL(url string) Client {
	return Client{
		baseURL:        strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// NewWithRouter creates a client which makes pseudo-REST requests
// through the mux router, without a network round trip.
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// WithBasicAuth returns a new client with tenant-scoped basic
// authentication. The platform expects the username in the
// "tenant/user" form.
func (c Client) WithBasicAuth(tenant, username, password string) Client {
	c.tenant = tenant
	c.username = username
	c.password = password
	c.token = ""
	return c
}

// WithToken returns a new client with bearer token authentication.
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithTenant returns a new client with the tenant ID set, without
// changing credentials. Needed for token authentication against
// tenant-scoped routes such as the user management.
func (c Client) WithTenant(tenant string) Client {
	c.tenant = tenant
	return c
}

// WithHeader returns a new client with a default header added.
func (c Client) WithHeader(key, value string) Client {
	headers := map[string]string{key: value}
	for k, v := range c.defaultHeaders {
		if k != key {
			headers[k] = v
		}
	}
	c.defaultHeaders = headers
	return c
}

// WithApplicationKey returns a new client which identifies the calling
// application in every request.
func (c Client) WithApplicationKey(key string) Client {
	return c.WithHeader(ApplicationKeyHeader, key)
}

// WithContext returns a new client with a specific base context.
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// BaseURL returns the configured platform URL. Empty in router mode.
func (c Client) BaseURL() string {
	return c.baseURL
}

// Tenant returns the tenant ID the client is bound to.
func (c Client) Tenant() string {
	return c.tenant
}

// Token returns the bearer token, if any.
func (c Client) Token() string {
	return c.token
}

// Context returns the client's base context.
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c Client) do(method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	r, err := http.NewRequestWithContext(c.Context(), method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	r.Header.Set("Accept", "application/json")
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" {
		user := c.username
		if c.tenant != "" && !strings.Contains(user, "/") {
			user = c.tenant + "/" + c.username
		}
		r.SetBasicAuth(user, c.password)
	}

	rlog := logger.FromContext(c.ctx)
	rlog.Debugf("%s %s", method, path)

	var res *http.Response
	var resBody []byte
	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res = rec.Result()
		resBody = rec.Body.Bytes()
	} else {
		res, err = c.httpClient.Do(r)
		if err != nil {
			return 0, nil, err
		}
		defer res.Body.Close()
		resBody, _ = io.ReadAll(res.Body)
	}
	return res.StatusCode, resBody, nil
}

// statusError translates an unexpected response status into one of the
// core error kinds. Transport-level transient failures (5xx) keep their
// plain form and are not retried here.
func statusError(method, path string, status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	var kind error
	switch status {
	case http.StatusNotFound:
		kind = core.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = core.ErrValidation
	case http.StatusConflict:
		kind = core.ErrConflict
	}
	return core.Errorf(kind, "", "", path, "%s request failed with status %d: %s", method, status, text)
}

func decode(data []byte, result any) error {
	if len(data) == 0 || result == nil {
		return nil
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = data
		return nil
	}
	return json.Unmarshal(data, result)
}

// Get reads the resource at path. Expects http.StatusOK, otherwise it
// flags an error. Returns the actual http status code.
//
// result can be a struct, a map[string]any or a raw *[]byte. result
// can be nil.
func (c Client) Get(path string, result any) (int, error) {
	status, body, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	if status == http.StatusNoContent {
		return status, nil
	}
	if status != http.StatusOK {
		return status, statusError(http.MethodGet, path, status, body)
	}
	return status, decode(body, result)
}

// Post creates a resource at path. Expects http.StatusCreated or
// http.StatusOK, otherwise it flags an error. Returns the actual http
// status code.
//
// body can also be a []byte, result can also be a raw *[]byte. result
// can be nil.
func (c Client) Post(path string, body any, result any) (int, error) {
	j, err := encode(body)
	if err != nil {
		return http.StatusBadRequest, err
	}
	status, resBody, err := c.do(http.MethodPost, path, j)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return status, statusError(http.MethodPost, path, status, resBody)
	}
	return status, decode(resBody, result)
}

// Put updates the resource at path. Expects http.StatusOK,
// http.StatusCreated or http.StatusNoContent as valid responses,
// otherwise it flags an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be a raw *[]byte. result
// can be nil.
func (c Client) Put(path string, body any, result any) (int, error) {
	j, err := encode(body)
	if err != nil {
		return http.StatusBadRequest, err
	}
	status, resBody, err := c.do(http.MethodPut, path, j)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return status, statusError(http.MethodPut, path, status, resBody)
	}
	return status, decode(resBody, result)
}

// Delete deletes the resource at path. Expects http.StatusNoContent or
// http.StatusOK, otherwise it flags an error. Returns the actual http
// status code.
func (c Client) Delete(path string) (int, error) {
	status, body, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return status, statusError(http.MethodDelete, path, status, body)
	}
	return status, nil
}

func encode(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if j, ok := body.([]byte); ok {
		return j, nil
	}
	return json.Marshal(body)
}
