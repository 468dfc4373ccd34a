package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tripalhq/tripal/internal/log"
)

// Rakuten client errors.
var (
	// ErrRakutenServer indicates a 5xx from the Rakuten Travel API.
	ErrRakutenServer = errors.New("rakuten server error")

	// ErrRakutenSearch indicates the API answered with an error body.
	ErrRakutenSearch = errors.New("rakuten search error")
)

const (
	defaultRakutenBaseURL = "https://app.rakuten.co.jp/services/api"

	keywordHotelSearchPath = "/Travel/KeywordHotelSearch/20170426"

	// Basic-info fields requested from the API: name, highlights,
	// postal code, address, phone, info URL, plan list URL, minimum
	// charge, and access directions.
	hotelSearchElements = "hotelName,hotelSpecial,postalCode,address1,address2,telephoneNo,hotelInformationUrl,planListUrl,hotelMinCharge,access"
)

// RakutenConfig contains the parameters for the Rakuten Travel API client.
type RakutenConfig struct {
	ApplicationID string
	AffiliateID   string

	// BaseURL overrides the API endpoint (tests). Empty = production.
	BaseURL string

	// HTTPClient overrides the default client (nil = 30s timeout).
	HTTPClient *http.Client

	// MaxResponseSize caps response bodies in bytes (0 = 4MB).
	MaxResponseSize int64

	Logger log.Logger
}

func (cfg RakutenConfig) validate() error {
	if cfg.ApplicationID == "" {
		return fmt.Errorf("rakuten application id is required")
	}
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Rakuten is a client for the Rakuten Travel keyword hotel search API.
type Rakuten struct {
	applicationID string
	affiliateID   string
	baseURL       string
	client        *http.Client
	maxSize       int64
	logger        log.Logger
}

// NewRakuten creates a Rakuten Travel client.
func NewRakuten(cfg RakutenConfig) (*Rakuten, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultRakutenBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	maxSize := cfg.MaxResponseSize
	if maxSize == 0 {
		maxSize = defaultMaxResponseSize
	}

	return &Rakuten{
		applicationID: cfg.ApplicationID,
		affiliateID:   cfg.AffiliateID,
		baseURL:       baseURL,
		client:        client,
		maxSize:       maxSize,
		logger:        cfg.Logger,
	}, nil
}

// SearchHotels runs a keyword hotel search. keyword is space separated
// (AND search); prefCode optionally restricts hits to one prefecture.
// Each returned map is one hotel's basic-info record as the API sent it.
func (r *Rakuten) SearchHotels(ctx context.Context, keyword, prefCode string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("applicationId", r.applicationID)
	if r.affiliateID != "" {
		params.Set("affiliateId", r.affiliateID)
	}
	params.Set("format", "json")
	params.Set("formatVersion", "2")
	params.Set("responseType", "small")
	params.Set("elements", hotelSearchElements)
	params.Set("keyword", keyword)
	if prefCode != "" {
		params.Set("middleClassCode", prefCode)
	}

	rawURL := r.baseURL + keywordHotelSearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		r.logger.Error("keyword hotel search failed",
			"keyword", keyword,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("%w: status %d", ErrRakutenServer, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// formatVersion=2 nests each hotel as an array of record objects;
	// with responseType=small only the basic-info record is present.
	var res struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Hotels           [][]struct {
			HotelBasicInfo map[string]any `json:"hotelBasicInfo"`
		} `json:"hotels"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode hotel search response: %w", err)
	}
	if res.Error != "" {
		r.logger.Error("keyword hotel search rejected",
			"keyword", keyword,
			"error", res.Error,
			"error_description", res.ErrorDescription,
		)
		return nil, fmt.Errorf("%w: %s", ErrRakutenSearch, res.Error)
	}

	hotels := make([]map[string]any, 0, len(res.Hotels))
	for _, h := range res.Hotels {
		if len(h) == 0 || h[0].HotelBasicInfo == nil {
			continue
		}
		hotels = append(hotels, h[0].HotelBasicInfo)
	}
	return hotels, nil
}
