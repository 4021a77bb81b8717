// Package schoolcafe is a read-only client for the SchoolCafé menu API.
package schoolcafe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://webapis.schoolcafe.com"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client fetches raw menu data. Responses are returned undecoded because
// their shape varies between endpoints and days.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new SchoolCafé client. A nil httpClient gets a
// default client with a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetServiceLine returns the serving lines for a school and date range.
func (c *Client) GetServiceLine(ctx context.Context, q ServiceLineQuery) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("schoolid", q.SchoolID)
	params.Set("startdate", q.Start.Format("2006-01-02"))
	params.Set("enddate", q.End.Format("2006-01-02"))
	params.Set("mealtype", q.MealType)

	return c.get(ctx, "GetServiceLine", "/api/GetServiceLine", params)
}

// GetWeeklyMenuItemsByGrade returns the week of menu items containing
// q.ServingDate. The endpoint expects the date as MM/DD/YYYY.
func (c *Client) GetWeeklyMenuItemsByGrade(ctx context.Context, q WeeklyMenuQuery) (json.RawMessage, error) {
	personID := "null"
	if q.PersonID != nil {
		personID = *q.PersonID
	}

	params := url.Values{}
	params.Set("SchoolId", q.SchoolID)
	params.Set("ServingDate", q.ServingDate.Format("01/02/2006"))
	params.Set("ServingLine", q.ServingLine)
	params.Set("MealType", q.MealType)
	params.Set("Grade", q.Grade)
	params.Set("PersonId", personID)
	params.Set("enabledWeekendMenus", strconv.FormatBool(q.EnabledWeekendMenus))

	return c.get(ctx, "GetWeeklyMenuitemsByGrade", "/api/CalendarView/GetWeeklyMenuitemsByGrade", params)
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if !json.Valid(body) {
		return nil, &TransportError{Op: op, Err: errInvalidJSON}
	}
	return json.RawMessage(body), nil
}
