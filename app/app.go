// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package app bootstraps Cirrus microservices from their hosting
environment.

A SimpleApp serves single-tenant microservices: it reads the service
credentials from the environment and behaves like a regular client for
its own tenant. A MultiTenantApp serves microservices subscribed by
many tenants: it holds the bootstrap credentials and hands out
tenant-scoped client instances on demand, with the per-tenant service
credentials discovered through the application subscription endpoint.

User and tenant instances are cached with a bounded size and TTL, so
revoked credentials age out without a restart.
*/
package app

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/joeshaw/envdecode"

	"github.com/relabs-tech/cirrus"
	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/rest"
	"github.com/relabs-tech/cirrus/model"
)

// Cache bounds for user and tenant instances.
const (
	DefaultCacheSize = 100
	DefaultCacheTTL  = time.Hour
)

// Config holds the environment of a single-tenant microservice.
type Config struct {
	BaseURL        string `env:"CIRRUS_BASEURL,required" description:"the URL of the platform instance"`
	Tenant         string `env:"CIRRUS_TENANT,required" description:"the tenant ID the service runs in"`
	Username       string `env:"CIRRUS_USER,required" description:"the service user"`
	Password       string `env:"CIRRUS_PASSWORD,required" description:"the service user's password"`
	ApplicationKey string `env:"CIRRUS_APPLICATION_KEY" description:"optional application key for request tracking"`
}

// BootstrapConfig holds the environment of a multi-tenant microservice.
type BootstrapConfig struct {
	BaseURL        string `env:"CIRRUS_BASEURL,required" description:"the URL of the platform instance"`
	Tenant         string `env:"CIRRUS_BOOTSTRAP_TENANT,required" description:"the bootstrap tenant ID"`
	Username       string `env:"CIRRUS_BOOTSTRAP_USER,required" description:"the bootstrap user"`
	Password       string `env:"CIRRUS_BOOTSTRAP_PASSWORD,required" description:"the bootstrap user's password"`
	ApplicationKey string `env:"CIRRUS_APPLICATION_KEY" description:"optional application key for request tracking"`
}

// SimpleApp is a client for a microservice deployed per tenant. It
// embeds a regular client authorized with the service credentials and
// additionally hands out user-scoped instances for inbound requests.
type SimpleApp struct {
	*cirrus.Client

	config Config
	users  *expirable.LRU[string, *cirrus.Client]
}

// NewSimpleApp creates the service client from the environment.
func NewSimpleApp() (*SimpleApp, error) {
	var config Config
	if err := envdecode.Decode(&config); err != nil {
		return nil, err
	}
	return NewSimpleAppWithConfig(config), nil
}

// NewSimpleAppWithConfig creates the service client from an explicit
// configuration, e.g. in tests.
func NewSimpleAppWithConfig(config Config) *SimpleApp {
	conn := rest.NewWithURL(config.BaseURL).
		WithBasicAuth(config.Tenant, config.Username, config.Password)
	if config.ApplicationKey != "" {
		conn = conn.WithApplicationKey(config.ApplicationKey)
	}
	return &SimpleApp{
		Client: cirrus.NewWithConnection(conn),
		config: config,
		users:  expirable.NewLRU[string, *cirrus.Client](DefaultCacheSize, nil, DefaultCacheTTL),
	}
}

// UserInstance returns a client authorized as the user identified by
// the given Authorization header value. Instances are cached per
// header, expired entries are rebuilt on demand.
func (a *SimpleApp) UserInstance(authorization string) (*cirrus.Client, error) {
	if instance, ok := a.users.Get(authorization); ok {
		return instance, nil
	}
	creds, err := ParseAuthorization(authorization)
	if err != nil {
		return nil, err
	}
	if creds.Tenant == "" {
		creds.Tenant = a.config.Tenant
	}
	conn := creds.connection(a.config.BaseURL)
	if a.config.ApplicationKey != "" {
		conn = conn.WithApplicationKey(a.config.ApplicationKey)
	}
	instance := cirrus.NewWithConnection(conn)
	a.users.Add(authorization, instance)
	return instance, nil
}

// ClearUserCache drops all cached user instances.
func (a *SimpleApp) ClearUserCache() {
	a.users.Purge()
}

// MultiTenantApp is a factory for tenant-scoped clients in a
// microservice subscribed by multiple tenants. The bootstrap client is
// only authorized for the subscription endpoint, all tenant work goes
// through instances from TenantInstance.
type MultiTenantApp struct {
	Bootstrap *cirrus.Client

	config    BootstrapConfig
	auths     *expirable.LRU[string, model.TenantCredentials]
	instances *expirable.LRU[string, *cirrus.Client]
	users     *expirable.LRU[string, *cirrus.Client]
}

// NewMultiTenantApp creates the factory from the environment.
func NewMultiTenantApp() (*MultiTenantApp, error) {
	var config BootstrapConfig
	if err := envdecode.Decode(&config); err != nil {
		return nil, err
	}
	return NewMultiTenantAppWithConfig(config), nil
}

// NewMultiTenantAppWithConfig creates the factory from an explicit
// configuration, e.g. in tests.
func NewMultiTenantAppWithConfig(config BootstrapConfig) *MultiTenantApp {
	conn := rest.NewWithURL(config.BaseURL).
		WithBasicAuth(config.Tenant, config.Username, config.Password)
	return &MultiTenantApp{
		Bootstrap: cirrus.NewWithConnection(conn),
		config:    config,
		auths:     expirable.NewLRU[string, model.TenantCredentials](DefaultCacheSize, nil, DefaultCacheTTL),
		instances: expirable.NewLRU[string, *cirrus.Client](DefaultCacheSize, nil, DefaultCacheTTL),
		users:     expirable.NewLRU[string, *cirrus.Client](DefaultCacheSize, nil, DefaultCacheTTL),
	}
}

// tenantAuth returns the service credentials of a subscribed tenant,
// refreshing the subscription list from the platform on a cache miss.
func (a *MultiTenantApp) tenantAuth(tenant string) (model.TenantCredentials, error) {
	if creds, ok := a.auths.Get(tenant); ok {
		return creds, nil
	}
	subscriptions, err := a.Bootstrap.Applications.Subscriptions()
	if err != nil {
		return model.TenantCredentials{}, err
	}
	for _, subscription := range subscriptions {
		a.auths.Add(subscription.Tenant, subscription)
	}
	creds, ok := a.auths.Get(tenant)
	if !ok {
		return model.TenantCredentials{}, core.Errorf(core.ErrNotFound, "tenant", tenant, "",
			"tenant is not subscribed to this application")
	}
	return creds, nil
}

// TenantInstance returns a client authorized for the given subscribed
// tenant. Instances are cached, expired entries are rebuilt on demand.
func (a *MultiTenantApp) TenantInstance(tenant string) (*cirrus.Client, error) {
	if instance, ok := a.instances.Get(tenant); ok {
		return instance, nil
	}
	creds, err := a.tenantAuth(tenant)
	if err != nil {
		return nil, err
	}
	conn := rest.NewWithURL(a.config.BaseURL).
		WithBasicAuth(creds.Tenant, creds.Username, creds.Password)
	if a.config.ApplicationKey != "" {
		conn = conn.WithApplicationKey(a.config.ApplicationKey)
	}
	instance := cirrus.NewWithConnection(conn)
	a.instances.Add(tenant, instance)
	return instance, nil
}

// TenantInstanceFor resolves the tenant from an inbound Authorization
// header value and returns the tenant instance.
func (a *MultiTenantApp) TenantInstanceFor(authorization string) (*cirrus.Client, error) {
	tenant, err := TenantID(authorization)
	if err != nil {
		return nil, err
	}
	return a.TenantInstance(tenant)
}

// UserInstance returns a client authorized as the user identified by
// the given Authorization header value.
func (a *MultiTenantApp) UserInstance(authorization string) (*cirrus.Client, error) {
	if instance, ok := a.users.Get(authorization); ok {
		return instance, nil
	}
	creds, err := ParseAuthorization(authorization)
	if err != nil {
		return nil, err
	}
	conn := creds.connection(a.config.BaseURL)
	if a.config.ApplicationKey != "" {
		conn = conn.WithApplicationKey(a.config.ApplicationKey)
	}
	instance := cirrus.NewWithConnection(conn)
	a.users.Add(authorization, instance)
	return instance, nil
}

// Invalidate drops the cached instance and credentials of a tenant.
// Call this when a tenant request fails authorization, the next
// TenantInstance call then rediscovers the subscription credentials.
func (a *MultiTenantApp) Invalidate(tenant string) {
	a.instances.Remove(tenant)
	a.auths.Remove(tenant)
}
