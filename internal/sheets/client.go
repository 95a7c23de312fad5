// Package sheets provides a Google Sheets backed record store.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/store"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	requestTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	backendName    = "sheets"
)

var (
	// ErrUnauthorized indicates the credentials were rejected or the
	// spreadsheet is not shared with the service account.
	ErrUnauthorized = errors.New("sheets: unauthorized (check the service account key and sharing)")
	// ErrRateLimited indicates the API quota was hit.
	ErrRateLimited = errors.New("sheets: rate limited")
	// ErrSpreadsheetNotFound indicates the spreadsheet ID does not exist.
	ErrSpreadsheetNotFound = errors.New("sheets: spreadsheet not found")
)

// Client reads and appends worksheet rows through the Sheets REST API.
// Each worksheet is one table; its first row is the header.
type Client struct {
	spreadsheetID string
	baseURL       string
	tokens        TokenSource
	http          *http.Client
}

var _ store.RecordStore = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the given spreadsheet.
func NewClient(spreadsheetID string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		baseURL:       defaultBaseURL,
		tokens:        tokens,
		http:          &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadAll returns the data rows of the named worksheet keyed by header,
// skipping rows whose cells are all blank.
func (c *Client) ReadAll(ctx context.Context, table string) ([]store.Row, error) {
	q := url.Values{
		"valueRenderOption": {"FORMATTED_VALUE"},
		"majorDimension":    {"ROWS"},
	}
	body, err := c.do(ctx, http.MethodGet, c.valuesURL(sheetRange(table), "", q), nil)
	if err != nil {
		return nil, c.connErr("read", table, err)
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, c.connErr("read", table, fmt.Errorf("parsing values: %w", err))
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}

	header := cellStrings(vr.Values[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]store.Row, 0, len(vr.Values)-1)
	for i, raw := range vr.Values[1:] {
		cells := cellStrings(raw)
		if allBlank(cells) {
			continue
		}
		row := store.RowFromCells(header, cells)
		row[store.LineKey] = strconv.Itoa(i + 2)
		rows = append(rows, row)
	}
	return rows, nil
}

// Append adds one row after the last row of the named worksheet.
func (c *Client) Append(ctx context.Context, table string, cells []any) error {
	values := make([]any, len(cells))
	for i, v := range cells {
		if t, ok := v.(time.Time); ok {
			values[i] = t.Format(model.DateLayout)
			continue
		}
		values[i] = v
	}

	payload, err := json.Marshal(valueRange{
		MajorDimension: "ROWS",
		Values:         [][]any{values},
	})
	if err != nil {
		return err
	}

	// RAW keeps text as typed: dates stay ISO strings and a leading "="
	// is never evaluated as a formula.
	q := url.Values{
		"valueInputOption": {"RAW"},
		"insertDataOption": {"INSERT_ROWS"},
	}
	body, err := c.do(ctx, http.MethodPost, c.valuesURL(sheetRange(table), ":append", q), payload)
	if err != nil {
		return c.connErr("append", table, err)
	}

	var ar appendResponse
	if err := json.Unmarshal(body, &ar); err == nil && ar.Updates.UpdatedRows != 0 && ar.Updates.UpdatedRows != 1 {
		return c.connErr("append", table, fmt.Errorf("expected 1 updated row, got %d", ar.Updates.UpdatedRows))
	}
	return nil
}

// EnsureTable completes the header row of table. Worksheets created before
// a column was added (the maintenance log gained 零件 this way) have a
// header that is a prefix of columns; the missing names are written after
// it so appended cells land under a header and are read back. An empty
// worksheet gets the whole header. Any other header is left untouched.
func (c *Client) EnsureTable(ctx context.Context, table string, columns []string) error {
	q := url.Values{
		"valueRenderOption": {"FORMATTED_VALUE"},
		"majorDimension":    {"ROWS"},
	}
	body, err := c.do(ctx, http.MethodGet, c.valuesURL(sheetRange(table)+"!1:1", "", q), nil)
	if err != nil {
		return c.connErr("read header", table, err)
	}
	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return c.connErr("read header", table, fmt.Errorf("parsing values: %w", err))
	}

	var header []string
	if len(vr.Values) > 0 {
		header = cellStrings(vr.Values[0])
	}
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	if len(header) >= len(columns) {
		return nil
	}
	for i, h := range header {
		if strings.TrimSpace(h) != columns[i] {
			return nil
		}
	}

	missing := make([]any, 0, len(columns)-len(header))
	for _, col := range columns[len(header):] {
		missing = append(missing, col)
	}
	rng := sheetRange(table) + "!" + columnName(len(header)) + "1"
	payload, err := json.Marshal(valueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         [][]any{missing},
	})
	if err != nil {
		return err
	}
	put := url.Values{"valueInputOption": {"RAW"}}
	if _, err := c.do(ctx, http.MethodPut, c.valuesURL(rng, "", put), payload); err != nil {
		return c.connErr("write header", table, err)
	}
	return nil
}

func (c *Client) valuesURL(rng, suffix string, q url.Values) string {
	return fmt.Sprintf("%s/%s/values/%s%s?%s",
		c.baseURL,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(rng),
		suffix,
		q.Encode(),
	)
}

// do performs an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	if c.spreadsheetID == "" {
		return nil, errors.New("sheets: no spreadsheet ID configured")
	}
	if c.tokens == nil {
		return nil, ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("sheets: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/garage/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("sheets: reading response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

func statusError(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.Error.Message

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusNotFound:
		return ErrSpreadsheetNotFound
	case status == http.StatusBadRequest && strings.Contains(msg, "Unable to parse range"):
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, msg)
	}

	if msg != "" {
		return fmt.Errorf("sheets: unexpected status %d: %s", status, msg)
	}
	return fmt.Errorf("sheets: unexpected status %d", status)
}

func (c *Client) connErr(op, table string, err error) error {
	return &store.ConnectionError{Backend: backendName, Op: op, Table: table, Err: err}
}

// sheetRange quotes a worksheet title for use as an A1 range.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// columnName returns the A1 column letters of the zero-based index i.
func columnName(i int) string {
	name := ""
	for i++; i > 0; i = (i - 1) / 26 {
		name = string(rune('A'+(i-1)%26)) + name
	}
	return name
}

func cellStrings(raw []any) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = store.FormatCell(v)
	}
	return out
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
