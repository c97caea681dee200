// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package app

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cirrus/core"
)

func basicHeader(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// unsignedToken builds a token carrying the given claims, the way the
// platform encodes tenant and user into its bearer tokens.
func unsignedToken(t *testing.T, claims map[string]any) string {
	header, err := json.Marshal(map[string]any{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "."
}

func TestParseBasicAuthorization(t *testing.T) {
	creds, err := ParseAuthorization(basicHeader("t4711/alice", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "t4711", creds.Tenant)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "secret", creds.Password)

	// without the tenant prefix the tenant stays unresolved
	creds, err = ParseAuthorization(basicHeader("alice", "secret"))
	require.NoError(t, err)
	assert.Empty(t, creds.Tenant)
	assert.Equal(t, "alice", creds.Username)
}

func TestParseBearerAuthorization(t *testing.T) {
	token := unsignedToken(t, map[string]any{"ten": "t4711", "sub": "alice"})
	creds, err := ParseAuthorization("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "t4711", creds.Tenant)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, token, creds.Token)
}

func TestParseAuthorizationRejectsGarbage(t *testing.T) {
	for _, header := range []string{
		"",
		"Basic",
		"Basic not-base64!",
		"Digest whatever",
		"Bearer not.a.token.at.all",
	} {
		_, err := ParseAuthorization(header)
		assert.True(t, errors.Is(err, core.ErrValidation), "header %q", header)
	}
}

func TestTenantID(t *testing.T) {
	tenant, err := TenantID(basicHeader("t4711/alice", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "t4711", tenant)

	tenant, err = TenantID("Bearer " + unsignedToken(t, map[string]any{"ten": "t0815"}))
	require.NoError(t, err)
	assert.Equal(t, "t0815", tenant)

	// a token without the tenant claim cannot resolve one
	_, err = TenantID("Bearer " + unsignedToken(t, map[string]any{"sub": "alice"}))
	assert.True(t, errors.Is(err, core.ErrValidation))
}
