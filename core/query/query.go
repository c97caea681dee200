// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package query translates structured filter parameters into the URL
// parameters and query-language expressions understood by the platform's
// collection endpoints.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/cirrus/core"
)

// Params is the set of recognized filters for a resource collection.
// The zero value selects everything.
//
// Unset fields are omitted from the request. Time bounds can be given
// as timestrings (After/Before, also under their DateFrom/DateTo wire
// aliases) or as ages relative to now (MinAge/MaxAge); specifying the
// same bound twice is an error.
type Params struct {
	Type     string
	Name     string
	Owner    string
	Source   string
	Fragment string // fragment-presence filter (wire name: fragmentType)
	Series   string
	Device   string
	Agent    string
	Status   string
	Text     string

	// After/Before bound the resource time. The core.Now sentinel is
	// resolved at request time.
	After  string
	Before string
	// DateFrom/DateTo are aliases for After/Before, matching the wire
	// parameter names.
	DateFrom string
	DateTo   string
	// MinAge/MaxAge bound the resource time relative to now.
	MinAge time.Duration
	MaxAge time.Duration

	CreatedAfter  string
	CreatedBefore string
	UpdatedAfter  string
	UpdatedBefore string

	// Reverse inverts the result order where the resource supports it.
	Reverse bool
	// PageSize overrides the default page size for this request.
	PageSize int
	// Limit bounds the total number of objects yielded by a lazy
	// traversal. Zero means unbounded. It is a client-side control and
	// never sent to the platform.
	Limit int

	// Expression is a raw query-language expression. When set, it takes
	// exclusive precedence: all structured filters above are ignored for
	// the request.
	Expression string
}

// Escape makes a value safe for literal use within a query-language
// expression: reserved single quotes are doubled. All call sites must go
// through this function rather than hand-escaping.
func Escape(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// Eq renders a query-language equality term with a properly escaped
// literal, e.g. Eq("name", "it's") == "name eq 'it''s'".
func Eq(field, value string) string {
	return field + " eq '" + Escape(value) + "'"
}

// Unescape reverses Escape. Together they guarantee that any literal
// survives a round trip through the query grammar.
func Unescape(value string) string {
	return strings.ReplaceAll(value, "''", "'")
}

func (p Params) timeBound(primary, alias, primaryName, aliasName string, age time.Duration, ageName string) (string, error) {
	value := primary
	if alias != "" {
		if value != "" && alias != value {
			return "", core.Errorf(core.ErrValidation, "", "", "",
				"only one of the '%s' and '%s' query parameters must be used", primaryName, aliasName)
		}
		value = alias
	}
	if age != 0 {
		if value != "" {
			return "", core.Errorf(core.ErrValidation, "", "", "",
				"only one of the '%s' and '%s' query parameters must be used", ageName, primaryName)
		}
		value = core.FormatTime(time.Now().Add(-age))
	}
	return core.EnsureTimestring(value), nil
}

// Values renders the filter set as URL parameters.
//
// When a raw Expression is supplied it is rendered exclusively; no
// structured filter is merged into the result.
func (p Params) Values() (url.Values, error) {
	values := url.Values{}
	if p.Expression != "" {
		values.Set("query", p.Expression)
		return values, nil
	}

	after, err := p.timeBound(p.After, p.DateFrom, "after", "dateFrom", p.MaxAge, "maxAge")
	if err != nil {
		return nil, err
	}
	before, err := p.timeBound(p.Before, p.DateTo, "before", "dateTo", p.MinAge, "minAge")
	if err != nil {
		return nil, err
	}

	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("type", p.Type)
	set("owner", p.Owner)
	set("source", p.Source)
	set("fragmentType", p.Fragment)
	set("valueFragmentSeries", p.Series)
	set("deviceId", p.Device)
	set("agentId", p.Agent)
	set("status", p.Status)
	set("text", p.Text)
	set("dateFrom", after)
	set("dateTo", before)
	set("createdFrom", core.EnsureTimestring(p.CreatedAfter))
	set("createdTo", core.EnsureTimestring(p.CreatedBefore))
	set("lastUpdatedFrom", core.EnsureTimestring(p.UpdatedAfter))
	set("lastUpdatedTo", core.EnsureTimestring(p.UpdatedBefore))
	if p.Name != "" {
		// the inventory knows no plain name parameter, names are
		// filtered through the query language
		values.Set("query", Eq("name", p.Name))
	}
	if p.Reverse {
		values.Set("revert", "true")
	}
	return values, nil
}

// Encode renders the filter set as a query string, with the page size
// applied. Used by the pagination engine to build its base query.
func (p Params) Encode(pageSize int) (string, error) {
	values, err := p.Values()
	if err != nil {
		return "", err
	}
	if p.PageSize > 0 {
		pageSize = p.PageSize
	}
	values.Set("pageSize", strconv.Itoa(pageSize))
	return values.Encode(), nil
}
