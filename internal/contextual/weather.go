package contextual

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoSource fetches current conditions from the Open-Meteo forecast
// API, which needs no API key.
type OpenMeteoSource struct {
	BaseURL string
	Client  *http.Client
}

// NewOpenMeteoSource returns a weather source with a sane request timeout.
func NewOpenMeteoSource() *OpenMeteoSource {
	return &OpenMeteoSource{
		BaseURL: openMeteoBaseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

// Current implements WeatherSource.
func (s *OpenMeteoSource) Current(ctx context.Context, latitude, longitude float64) (Conditions, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	query.Set("current", "temperature_2m,wind_speed_10m,relative_humidity_2m,weather_code")
	query.Set("daily", "sunrise,sunset")
	query.Set("forecast_days", "1")
	query.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("fetch weather: status %s", resp.Status)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Conditions{}, fmt.Errorf("decode weather response: %w", err)
	}

	cond := Conditions{
		TempC:    body.Current.Temperature,
		WindKph:  body.Current.WindSpeed,
		Humidity: body.Current.Humidity,
		Text:     weatherCodeText(body.Current.WeatherCode),
	}
	if len(body.Daily.Sunrise) > 0 {
		cond.Sunrise = parseLocalTime(body.Daily.Sunrise[0])
	}
	if len(body.Daily.Sunset) > 0 {
		cond.Sunset = parseLocalTime(body.Daily.Sunset[0])
	}
	return cond, nil
}

func parseLocalTime(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", value, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// weatherCodeText maps WMO weather interpretation codes onto the phrases the
// weather-gated predicates look for.
func weatherCodeText(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 2:
		return "Mainly sunny"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
