package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"finboard/internal/core"
)

// maxBodyBytes bounds request bodies for transaction writes.
const maxBodyBytes = 1 << 16

var (
	errBodyTooLarge  = errors.New("request body too large")
	errMalformedBody = errors.New("malformed request body")
)

// RequestBodyParser reads a JSON object or a url-encoded form once and
// exposes its fields as trimmed strings.
type RequestBodyParser struct {
	contentType string
	jsonData    map[string]any
	formData    url.Values
}

// ParseRequestBody reads and decodes r's body.
func ParseRequestBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	if p.isJSON(body) {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(body, &p.jsonData); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return p, nil
	}

	p.formData, err = url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return p, nil
}

func (p *RequestBodyParser) isJSON(body []byte) bool {
	if mt, _, err := mime.ParseMediaType(p.contentType); err == nil && mt == "application/json" {
		return true
	}
	trimmed := strings.TrimLeftFunc(string(body), unicode.IsSpace)
	return strings.HasPrefix(trimmed, "{")
}

// Get returns a field value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// sanitizeInput drops control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// ParseTransaction builds a new transaction from the request fields type,
// amount, date, category and description. Any client-supplied id is ignored.
func (p *RequestBodyParser) ParseTransaction() (core.Transaction, error) {
	typ, err := core.ParseType(p.Get("type"))
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// yearParam maps a missing year parameter to "all". A present but empty
// value is passed through and rejected by the selector parser.
func yearParam(q url.Values) string {
	if !q.Has("year") {
		return "all"
	}
	return q.Get("year")
}
