// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cirrus/core/query"
	"github.com/relabs-tech/cirrus/core/rest"
)

// pagedAlarmStub serves a fixed number of alarms through the paginated
// collection protocol and counts the page requests.
func pagedAlarmStub(t *testing.T, total int, requests *int) *Alarms {
	router := mux.NewRouter()
	router.HandleFunc("/alarm/alarms", func(w http.ResponseWriter, r *http.Request) {
		*requests++
		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		require.NoError(t, err)
		page, err := strconv.Atoi(r.URL.Query().Get("currentPage"))
		require.NoError(t, err)

		start := (page - 1) * pageSize
		end := start + pageSize
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		docs := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			docs = append(docs, map[string]any{
				"id":   fmt.Sprintf("%d", i),
				"type": "test_Alarm",
				"text": fmt.Sprintf("alarm %d", i),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"alarms": docs})
	}).Methods(http.MethodGet)

	conn := rest.NewWithRouter(router)
	return NewAlarms(&conn)
}

func TestSelectTraversesAllPages(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 12, &requests)

	all, err := alarms.GetAll(query.Params{PageSize: 5})
	require.NoError(t, err)
	require.Len(t, all, 12)

	// order is preserved and every object is bound to the connection
	for i, alarm := range all {
		assert.Equal(t, fmt.Sprintf("%d", i), alarm.ID)
		assert.NotNil(t, alarm.Connection())
	}

	// pages of 5, 5 and 2; the short page terminates the traversal
	assert.Equal(t, 3, requests)
}

func TestSelectStopsAtLimitWithoutLookahead(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 10, &requests)

	all, err := alarms.GetAll(query.Params{PageSize: 5, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 10)

	// the second page is full, but the limit is reached; no request for
	// a third page is issued
	assert.Equal(t, 2, requests)
}

func TestSelectHandlesTrailingEmptyPage(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 10, &requests)

	// the second page is full, so a third one is tried; it comes back
	// empty and terminates the traversal cleanly
	all, err := alarms.GetAll(query.Params{PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, 3, requests)
}

func TestSelectIsLazy(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 100, &requests)

	count := 0
	for alarm, err := range alarms.Select(query.Params{PageSize: 5}) {
		require.NoError(t, err)
		require.NotNil(t, alarm)
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, requests, "abandoning the traversal must not fetch further pages")
}

func TestSelectEmptyResult(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 0, &requests)

	all, err := alarms.GetAll(query.Params{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, requests)
}

func TestGetPage(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 12, &requests)

	page, err := alarms.GetPage(query.Params{PageSize: 5}, 2)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, "5", page[0].ID)
	assert.Equal(t, 1, requests, "GetPage must not look ahead")

	// a page beyond the result set is empty, not an error
	page, err = alarms.GetPage(query.Params{PageSize: 5}, 4)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestCount(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/alarm/alarms", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "true", r.URL.Query().Get("withTotalCount"))
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"alarms": [{"id": "0"}], "statistics": {"totalCount": 42}}`))
	}).Methods(http.MethodGet)

	conn := rest.NewWithRouter(router)
	alarms := NewAlarms(&conn)

	count, err := alarms.Count(query.Params{Status: AlarmActive})
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestSelectRejectsConflictingTimeBounds(t *testing.T) {
	requests := 0
	alarms := pagedAlarmStub(t, 5, &requests)

	_, err := alarms.GetAll(query.Params{
		After:    "2024-06-01T00:00:00.000Z",
		DateFrom: "2024-06-02T00:00:00.000Z",
	})
	require.Error(t, err)
	assert.Equal(t, 0, requests, "invalid filters fail before any request")
}
