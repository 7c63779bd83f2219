package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// maxBodyBytes bounds ordinary request bodies.
	maxBodyBytes = 1 << 20
	// maxImportBytes bounds statement uploads, which ride in as JSON-encoded
	// CSV text and can be months of bank history.
	maxImportBytes = 16 << 20
)

func decodeJSON(r *http.Request, dst any) error {
	return decodeJSONBody(r, dst, maxBodyBytes)
}

func decodeJSONBody(r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// jsonText captures a JSON number or string as raw text. The allocation
// preview feeds it to the form engine untouched, so "abc" stays visible as
// the thing the client typed rather than a decode failure.
type jsonText string

func (t *jsonText) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(b, &unquoted); err != nil {
			return err
		}
		*t = jsonText(unquoted)
		return nil
	}
	*t = jsonText(s)
	return nil
}

// parseYearMonth reads optional year and month query parameters, falling
// back to the supplied current time. Unparseable or out-of-range values are
// replaced, not rejected; period filters are navigation, not input.
func parseYearMonth(query url.Values, now time.Time) (year, month int) {
	year, month = now.Year(), int(now.Month())
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1970 && n <= 9999 {
			year = n
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
			month = n
		}
	}
	return year, month
}

// parseLimitOffset reads pagination parameters. Zero limit means no bound.
func parseLimitOffset(query url.Values) (limit, offset int) {
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := strings.TrimSpace(query.Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

// sanitizeInput trims and strips control characters from user text.
// Newlines and tabs survive so multi-line notes stay intact.
func sanitizeInput(input string) string {
	trimmed := strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, trimmed)
}

// normalizeCurrency uppercases a currency code so "eur" and "EUR" compare
// equal everywhere downstream.
func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
