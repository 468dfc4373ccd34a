package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tripalhq/tripal/internal/log"
)

// TripAdvisor client errors.
var (
	// ErrUpstreamServer indicates a 5xx from the TripAdvisor API.
	ErrUpstreamServer = errors.New("tripadvisor server error")

	// ErrUpstreamSearch indicates the API answered with an error body.
	ErrUpstreamSearch = errors.New("tripadvisor search error")
)

const (
	defaultTripAdvisorBaseURL = "https://api.content.tripadvisor.com/api/v1"

	// Responses are location lists, not media; 4MB is generous.
	defaultMaxResponseSize = 4 << 20

	defaultHTTPTimeout = 30 * time.Second
)

// Location is the minimum information a search hit always carries. It
// doubles as the fallback when the detail lookup fails for that hit.
type Location struct {
	ID      string `json:"-"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Address string `json:"address"`
}

// LocationDetails is the full description of one location.
type LocationDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	WebURL      string `json:"web_url"`
	Country     string `json:"country"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	WeeklyHours any    `json:"weekly_hours"`
}

// TripAdvisorConfig contains the parameters for the TripAdvisor content
// API client.
type TripAdvisorConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint (tests). Empty = production.
	BaseURL string

	// HTTPClient overrides the default client (nil = 30s timeout).
	HTTPClient *http.Client

	// MaxResponseSize caps response bodies in bytes (0 = 4MB).
	MaxResponseSize int64

	Logger log.Logger
}

func (cfg TripAdvisorConfig) validate() error {
	if cfg.APIKey == "" {
		return fmt.Errorf("tripadvisor api key is required")
	}
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// TripAdvisor is a client for the TripAdvisor content API. Responses come
// back in Japanese with JPY pricing, matching the assistant's audience.
type TripAdvisor struct {
	apiKey  string
	baseURL string
	client  *http.Client
	maxSize int64
	logger  log.Logger
}

// NewTripAdvisor creates a TripAdvisor client.
func NewTripAdvisor(cfg TripAdvisorConfig) (*TripAdvisor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTripAdvisorBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	maxSize := cfg.MaxResponseSize
	if maxSize == 0 {
		maxSize = defaultMaxResponseSize
	}

	return &TripAdvisor{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  client,
		maxSize: maxSize,
		logger:  cfg.Logger,
	}, nil
}

// SearchLocations looks up locations matching query. category optionally
// narrows the result set ("hotels", "attractions", "restaurants", "geos").
func (t *TripAdvisor) SearchLocations(ctx context.Context, query, category string) ([]Location, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("language", "ja")
	params.Set("searchQuery", query)
	if category != "" {
		params.Set("category", category)
	}

	body, err := t.get(ctx, t.baseURL+"/location/search?"+params.Encode())
	if err != nil {
		t.logger.Error("location search failed", "query", query, "error", err)
		return nil, err
	}

	var res struct {
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
		Data    []struct {
			LocationID string `json:"location_id"`
			Name       string `json:"name"`
			AddressObj struct {
				Country       string `json:"country"`
				AddressString string `json:"address_string"`
			} `json:"address_obj"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode location search response: %w", err)
	}
	if len(res.Error) > 0 || len(res.Message) > 0 {
		t.logger.Error("location search rejected", "query", query, "body", string(body))
		return nil, ErrUpstreamSearch
	}

	locations := make([]Location, 0, len(res.Data))
	for _, d := range res.Data {
		locations = append(locations, Location{
			ID:      d.LocationID,
			Name:    orDefault(d.Name, "名前なし"),
			Country: orDefault(d.AddressObj.Country, "国なし"),
			Address: orDefault(d.AddressObj.AddressString, "住所なし"),
		})
	}
	return locations, nil
}

// LocationDetails fetches the detail record for one location. When the API
// rejects the lookup, the fallback's minimum information is returned
// instead of an error: a partial answer beats none for the model.
func (t *TripAdvisor) LocationDetails(ctx context.Context, fallback Location) LocationDetails {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("language", "ja")
	params.Set("currency", "JPY")

	minInfo := LocationDetails{
		Name:    fallback.Name,
		Country: fallback.Country,
		Address: fallback.Address,
	}

	body, err := t.get(ctx, t.baseURL+"/location/"+url.PathEscape(fallback.ID)+"/details?"+params.Encode())
	if err != nil {
		t.logger.Error("location details failed", "location_id", fallback.ID, "error", err)
		return minInfo
	}

	var res struct {
		Error json.RawMessage `json:"error"`
		Name  string          `json:"name"`
		Desc  string          `json:"description"`
		URL   string          `json:"web_url"`
		Addr  struct {
			Country       string `json:"country"`
			AddressString string `json:"address_string"`
		} `json:"address_obj"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Website string `json:"website"`
		Hours   struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"hours"`
	}
	if err := json.Unmarshal(body, &res); err != nil || len(res.Error) > 0 {
		return minInfo
	}

	var hours any = "営業時間情報なし"
	if len(res.Hours.WeekdayText) > 0 {
		hours = res.Hours.WeekdayText
	}

	return LocationDetails{
		Name:        orDefault(res.Name, "名前なし"),
		Description: orDefault(res.Desc, "詳細なし"),
		WebURL:      orDefault(res.URL, "TripadvisorのURL無し"),
		Country:     orDefault(res.Addr.Country, "国なし"),
		Address:     orDefault(res.Addr.AddressString, "住所なし"),
		Email:       orDefault(res.Email, "メールアドレスなし"),
		Phone:       orDefault(res.Phone, "電話番号なし"),
		Website:     orDefault(res.Website, "公式Webサイトなし"),
		WeeklyHours: hours,
	}
}

func (t *TripAdvisor) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamServer, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
