package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/tripalhq/tripal/internal/log"
)

// ReservationToolName identifies the accommodation-search tool.
const ReservationToolName = "Reservation_Information"

// reservationToolDescription is the tool description shown to the model.
const reservationToolDescription = `# description
Search for accommodations the user can reserve.
When you input a keyword (hotel name, area, features), you will receive accommodation details: name, highlights, address, phone, minimum charge, plan list URL, and access directions.

"keyword" is the text used to search for accommodations. If multiple keywords are specified by separating them with a half-width space, an AND search is performed.
"pref_code" is a code indicating the prefecture, the Romanized version of the prefecture name. If specified, only facilities in that prefecture are searched.

# conditions
- Use it whenever the user asks about lodging, hotels, ryokan, or where to stay.
- Present the plan list URL so the user can proceed to an actual reservation.

# Argument Examples
keyword = "北海道 旅館", pref_code = "hokkaido"
keyword = "東京", pref_code = "tokyo"
keyword = "那覇 ホテル", pref_code = "okinawa"
keyword = "名古屋 温泉", pref_code = "aichi"
keyword = "函館 旅館 おすすめ", pref_code = "hokkaido"`

// maxHotelResults limits how many accommodations a single call reports.
const maxHotelResults = 10

// prefectureCodes are the romanized codes the Rakuten API understands.
// Kept verbatim, irregular romanizations included (hukushima, tiba, gihu).
var prefectureCodes = map[string]bool{
	"hokkaido": true, "aomori": true, "iwate": true, "miyagi": true,
	"akita": true, "yamagata": true, "hukushima": true, "ibaragi": true,
	"tochigi": true, "gunma": true, "saitama": true, "tiba": true,
	"tokyo": true, "kanagawa": true, "niigata": true, "toyama": true,
	"ishikawa": true, "hukui": true, "yamanasi": true, "nagano": true,
	"gihu": true, "shizuoka": true, "aichi": true, "mie": true,
	"shiga": true, "kyoto": true, "osaka": true, "hyogo": true,
	"nara": true, "wakayama": true, "tottori": true, "simane": true,
	"okayama": true, "hiroshima": true, "yamaguchi": true, "tokushima": true,
	"kagawa": true, "ehime": true, "kouchi": true, "hukuoka": true,
	"saga": true, "nagasaki": true, "kumamoto": true, "ooita": true,
	"miyazaki": true, "kagoshima": true, "okinawa": true,
}

// ReservationInput is the argument schema of Reservation_Information.
type ReservationInput struct {
	Keyword  string `json:"keyword,omitempty" jsonschema:"Text used to search for accommodations. If multiple keywords are specified by separating them with a half-width space, an AND search is performed. Required parameter."`
	PrefCode string `json:"pref_code,omitempty" jsonschema:"A code indicating the prefecture. The code is the Romanized version of the prefecture name. If this field is specified, only facilities belonging to the designated district will be included in the search."`
}

// NewReservationSpec builds the Reservation_Information tool backed by the
// Rakuten Travel client.
func NewReservationSpec(client *Rakuten, logger log.Logger) (*Spec, error) {
	if client == nil {
		return nil, fmt.Errorf("rakuten client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return NewSpec(ReservationToolName, reservationToolDescription,
		func(ctx context.Context, in ReservationInput) (string, error) {
			return reservationInformation(ctx, client, logger, in)
		})
}

func reservationInformation(ctx context.Context, client *Rakuten, logger log.Logger, in ReservationInput) (string, error) {
	logger.Info("hotel search", "keyword", in.Keyword, "pref_code", in.PrefCode)

	if in.Keyword == "" {
		return emptySearchMessage, nil
	}
	if in.PrefCode != "" && !prefectureCodes[in.PrefCode] {
		return "", &ToolError{
			ErrorType: ErrTypeInvalidArguments,
			Message:   fmt.Sprintf("unknown pref_code %q: use the romanized prefecture name, e.g. tokyo, kyoto, hokkaido", in.PrefCode),
		}
	}

	hotels, err := client.SearchHotels(ctx, in.Keyword, in.PrefCode)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return fmt.Sprintf("%s\n\n%s", searchFailedMessage, "Server Error. Please try another keyword."), nil
	}
	if len(hotels) == 0 {
		return fmt.Sprintf("%s\n\n%s", searchFailedMessage, "該当する宿泊施設が見つかりませんでした"), nil
	}

	// Random sample keeps the answer size bounded while repeated
	// searches still surface different hotels.
	rand.Shuffle(len(hotels), func(i, j int) {
		hotels[i], hotels[j] = hotels[j], hotels[i]
	})
	if len(hotels) > maxHotelResults {
		hotels = hotels[:maxHotelResults]
	}

	output := make(map[string]map[string]any, len(hotels))
	for _, info := range hotels {
		name, _ := info["hotelName"].(string)
		if name == "" {
			name = "名前なし"
		}
		output[name] = map[string]any{"hotel_info": info}
	}

	text, err := json.Marshal(output)
	if err != nil {
		return "", &ToolError{
			ErrorType: ErrTypeUpstreamError,
			Message:   fmt.Sprintf("encode hotel details: %v", err),
		}
	}
	return string(text), nil
}
