package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/tripalhq/tripal/internal/log"
)

// LocationToolName identifies the travel-proposal tool.
const LocationToolName = "Location_Information"

// locationToolDescription is the tool description shown to the model.
const locationToolDescription = `# description
Propose travel plans to users.
When you input a prefecture, place, tourist spot, restaurant, or hotel, you will receive information and tourist details about that location.
Ambiguous searches are also possible.

"loc_search" is the content you want to look up.
"category" filters based on property type. Valid options are "", "hotels", "attractions", "restaurants" and "geos".

# conditions
- You should use it when making travel proposals to always get accurate information. Use the information you know as well.
- Also use it when making specific proposals to users.

# Argument Examples
loc_search = "日本の有名な観光スポット", category = "attractions"
loc_search = "東京都にあるホテル", category = "hotels"
loc_search = "北海道の名所", category = ""
loc_search = "東京タワー", category = "attractions"
loc_search = "旭山動物園", category = "attractions"
loc_search = "京都の有名レストラン", category = "restaurants"
loc_search = "別府温泉杉乃井ホテル", category = "hotels"`

// User-facing tool responses (the model relays these verbatim).
const (
	emptySearchMessage   = "検索したい場所を入力してください"
	searchFailedMessage  = "情報が取得出来ませんでした。もう一度やり直してください。"
	upstreamServerReason = "Server Error"
	upstreamSearchReason = "Search Error"
)

// LocationInput is the argument schema of Location_Information.
type LocationInput struct {
	LocSearch string `json:"loc_search,omitempty" jsonschema:"Text to use for searching based on the name of the location. Required parameter."`
	Category  string `json:"category,omitempty" jsonschema:"Filters result set based on property type. Valid options are \"\", \"hotels\", \"attractions\", \"restaurants\", and \"geos\". Arbitrary parameter."`
}

// NewLocationSpec builds the Location_Information tool backed by the
// TripAdvisor client.
func NewLocationSpec(client *TripAdvisor, logger log.Logger) (*Spec, error) {
	if client == nil {
		return nil, fmt.Errorf("tripadvisor client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return NewSpec(LocationToolName, locationToolDescription,
		func(ctx context.Context, in LocationInput) (string, error) {
			return locationInformation(ctx, client, logger, in)
		})
}

func locationInformation(ctx context.Context, client *TripAdvisor, logger log.Logger, in LocationInput) (string, error) {
	logger.Info("location search", "loc_search", in.LocSearch, "category", in.Category)

	// Function calling makes an empty query unlikely, but a guard beats
	// burning an API call on one.
	if in.LocSearch == "" {
		return emptySearchMessage, nil
	}

	locations, err := client.SearchLocations(ctx, in.LocSearch, in.Category)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		// Upstream failures go back to the model as text so it can
		// apologize or retry with a different query.
		reason := upstreamSearchReason
		if errors.Is(err, ErrUpstreamServer) {
			reason = upstreamServerReason
		}
		return fmt.Sprintf("%s\n\n%s", searchFailedMessage, reason), nil
	}
	if len(locations) == 0 {
		return fmt.Sprintf("%s\n\n%s", searchFailedMessage, "該当する場所が見つかりませんでした"), nil
	}

	// Shuffled so repeated searches surface different spots.
	rand.Shuffle(len(locations), func(i, j int) {
		locations[i], locations[j] = locations[j], locations[i]
	})

	output := make(map[string]LocationDetails, len(locations))
	for _, loc := range locations {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		output[loc.Name] = client.LocationDetails(ctx, loc)
	}

	text, err := json.Marshal(output)
	if err != nil {
		return "", &ToolError{
			ErrorType: ErrTypeUpstreamError,
			Message:   fmt.Sprintf("encode location details: %v", err),
		}
	}
	return string(text), nil
}
