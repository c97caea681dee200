// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package app

import (
	"encoding/base64"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/rest"
)

// Credentials are authentication details parsed from an inbound
// Authorization header, either basic or bearer.
type Credentials struct {
	Tenant   string
	Username string
	Password string
	Token    string
}

// ParseAuthorization parses a complete Authorization header value,
// including the "Basic" or "Bearer" scheme prefix. For basic auth the
// tenant ID is isolated from the "tenant/user" username form, for
// bearer auth it is read from the token claims.
func ParseAuthorization(header string) (*Credentials, error) {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || value == "" {
		return nil, core.Errorf(core.ErrValidation, "authorization", "", "",
			"malformed authorization header")
	}
	switch strings.ToLower(scheme) {
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, core.Errorf(core.ErrValidation, "authorization", "", "",
				"invalid basic auth encoding: %v", err)
		}
		user, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return nil, core.Errorf(core.ErrValidation, "authorization", "", "",
				"invalid basic auth value")
		}
		creds := &Credentials{Username: user, Password: password}
		if tenant, username, ok := strings.Cut(user, "/"); ok {
			creds.Tenant = tenant
			creds.Username = username
		}
		return creds, nil
	case "bearer":
		creds := &Credentials{Token: value}
		claims, err := tokenClaims(value)
		if err != nil {
			return nil, err
		}
		creds.Tenant, _ = claims["ten"].(string)
		creds.Username, _ = claims["sub"].(string)
		return creds, nil
	}
	return nil, core.Errorf(core.ErrValidation, "authorization", "", "",
		"unexpected authorization scheme %q", scheme)
}

// TenantID resolves the tenant ID from an Authorization header value.
func TenantID(header string) (string, error) {
	creds, err := ParseAuthorization(header)
	if err != nil {
		return "", err
	}
	if creds.Tenant == "" {
		return "", core.Errorf(core.ErrValidation, "authorization", "", "",
			"authorization carries no tenant ID")
	}
	return creds.Tenant, nil
}

// tokenClaims decodes the claims of a platform-issued token. The
// signature is not verified, the platform itself is the authority on
// token validity; we only transport the claims.
func tokenClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, core.Errorf(core.ErrValidation, "authorization", "", "",
			"cannot parse bearer token: %v", err)
	}
	return claims, nil
}

// connection builds a platform connection with these credentials.
func (c *Credentials) connection(baseURL string) rest.Client {
	conn := rest.NewWithURL(baseURL)
	if c.Token != "" {
		return conn.WithToken(c.Token).WithTenant(c.Tenant)
	}
	return conn.WithBasicAuth(c.Tenant, c.Username, c.Password)
}
