// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"iter"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/cirrus/core"
	"github.com/relabs-tech/cirrus/core/query"
	"github.com/relabs-tech/cirrus/core/rest"
)

// DefaultPageSize is the page size used by the collection APIs when the
// filter parameters do not override it.
const DefaultPageSize = 5

// collection implements the pagination engine for one resource
// endpoint. It is embedded by the typed collection APIs.
type collection[T any] struct {
	conn     *rest.Client
	path     string // collection endpoint, e.g. /alarm/alarms
	name     string // envelope key of the document array, e.g. alarms
	singular string // resource name used in error context
	// countable resources support the total-count request; others fail
	// Count with core.ErrUnsupported.
	countable bool
	parse     func(map[string]any) *T
}

func (c collection[T]) objectPath(id string) string {
	return c.path + "/" + id
}

// baseQuery renders the filters into the page-independent part of the
// collection URL; page requests append the page number.
func (c collection[T]) baseQuery(p query.Params) (string, int, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	encoded, err := p.Encode(pageSize)
	if err != nil {
		return "", 0, wrapStatus(err, c.singular, "")
	}
	return c.path + "?" + encoded + "&currentPage=", pageSize, nil
}

// fetchPage requests exactly one page and returns its raw documents.
// A missing document array (trailing empty page) is not an error.
func (c collection[T]) fetchPage(base string, number int) ([]map[string]any, error) {
	var envelope map[string]json.RawMessage
	if _, err := c.conn.Get(base+strconv.Itoa(number), &envelope); err != nil {
		return nil, wrapStatus(err, c.singular, "")
	}
	raw, ok := envelope[c.name]
	if !ok {
		return nil, nil
	}
	var docs []map[string]any
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, core.Errorf(core.ErrValidation, c.singular, "", "", "malformed page envelope: %v", err)
	}
	return docs, nil
}

// Select returns a lazy, single-pass sequence of objects matching the
// filters. Pages are fetched on demand as the consumer advances; each
// yielded object is bound to the originating connection. A full page
// triggers a request for the next one; a short or empty page terminates
// the traversal.
func (c collection[T]) Select(p query.Params) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		base, pageSize, err := c.baseQuery(p)
		if err != nil {
			yield(nil, err)
			return
		}
		yielded := 0
		for number := 1; ; number++ {
			docs, err := c.fetchPage(base, number)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, doc := range docs {
				if p.Limit > 0 && yielded >= p.Limit {
					return
				}
				if !yield(c.parse(doc), nil) {
					return
				}
				yielded++
			}
			if len(docs) < pageSize {
				return
			}
			if p.Limit > 0 && yielded >= p.Limit {
				return
			}
		}
	}
}

// GetAll eagerly materializes the full result set in original order.
func (c collection[T]) GetAll(p query.Params) ([]*T, error) {
	var result []*T
	for obj, err := range c.Select(p) {
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, nil
}

// GetPage fetches exactly one page, without look-ahead.
func (c collection[T]) GetPage(p query.Params, number int) ([]*T, error) {
	base, _, err := c.baseQuery(p)
	if err != nil {
		return nil, err
	}
	docs, err := c.fetchPage(base, number)
	if err != nil {
		return nil, err
	}
	result := make([]*T, 0, len(docs))
	for _, doc := range docs {
		result = append(result, c.parse(doc))
	}
	return result, nil
}

// Count asks the platform for the total number of matching objects,
// without retrieving them. Resources without a count endpoint fail with
// core.ErrUnsupported.
func (c collection[T]) Count(p query.Params) (int, error) {
	if !c.countable {
		return 0, core.Errorf(core.ErrUnsupported, c.singular, "", "",
			"the %s resource does not support counting", c.singular)
	}
	values, err := p.Values()
	if err != nil {
		return 0, wrapStatus(err, c.singular, "")
	}
	values.Set("pageSize", "1")
	values.Set("withTotalCount", "true")
	var envelope struct {
		Statistics struct {
			TotalCount int `json:"totalCount"`
		} `json:"statistics"`
	}
	if _, err := c.conn.Get(c.path+"?"+values.Encode(), &envelope); err != nil {
		return 0, wrapStatus(err, c.singular, "")
	}
	return envelope.Statistics.TotalCount, nil
}

// get reads a single object by ID.
func (c collection[T]) get(id string) (*T, error) {
	var doc map[string]any
	if _, err := c.conn.Get(c.objectPath(id), &doc); err != nil {
		return nil, wrapStatus(err, c.singular, id)
	}
	return c.parse(doc), nil
}

// Delete deletes objects by ID. Deletion is not idempotent: deleting an
// already deleted object fails with core.ErrNotFound.
func (c collection[T]) Delete(ids ...string) error {
	for _, id := range ids {
		if _, err := c.conn.Delete(c.objectPath(id)); err != nil {
			return wrapStatus(err, c.singular, id)
		}
	}
	return nil
}
