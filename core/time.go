// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import (
	"time"
)

// Now is the sentinel accepted for time fields of new objects. It is
// resolved to the current UTC time when the object is submitted, never
// earlier. Omitted time fields stay absent so that the platform's own
// default semantics apply.
const Now = "now"

// TimeFormat is the ISO-8601 format with millisecond precision used by
// the platform for all time fields.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders a time in the platform's wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NowTimestring returns the current UTC time in the platform's wire format.
func NowTimestring() string {
	return FormatTime(time.Now())
}

// ParseTime parses a platform timestring. RFC 3339 variants with other
// sub-second precision are accepted as well.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// EnsureTimestring resolves the Now sentinel and passes everything else
// through unchanged. Empty input stays empty.
func EnsureTimestring(s string) string {
	if s == Now {
		return NowTimestring()
	}
	return s
}
