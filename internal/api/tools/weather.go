package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const weatherToolName = "getWeather"

// WeatherClient fetches the forecast for the fixed resort location from the
// Open-Meteo public API. The location never varies per request.
type WeatherClient struct {
	baseURL   string
	latitude  float64
	longitude float64
	http      *http.Client
	logger    *slog.Logger
}

func NewWeatherClient(baseURL string, latitude, longitude float64, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
		Time        string  `json:"time"`
	} `json:"current_weather"`
	Daily struct {
		Time          []string  `json:"time"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
		WeatherCode   []int     `json:"weathercode"`
	} `json:"daily"`
}

func (c *WeatherClient) Forecast(ctx context.Context) (*forecastResponse, error) {
	ctx, span := otel.Tracer("WeatherTool").Start(ctx, "Forecast", trace.WithAttributes(
		attribute.Float64("weather.latitude", c.latitude),
		attribute.Float64("weather.longitude", c.longitude),
	))
	defer span.End()

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", c.latitude))
	q.Set("longitude", fmt.Sprintf("%g", c.longitude))
	q.Set("current_weather", "true")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode")
	q.Set("timezone", "auto")
	endpoint := c.baseURL + "/v1/forecast?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Forecast request failed")
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("weather API returned status %d", resp.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode forecast: %w", err)
	}
	span.SetStatus(codes.Ok, "Forecast fetched")
	return &forecast, nil
}

// NewWeatherTool declares the (parameterless) weather tool.
func NewWeatherTool(client *WeatherClient) *Tool {
	return &Tool{
		Declaration: &genai.FunctionDeclaration{
			Name:        weatherToolName,
			Description: "Get the current weather and 7-day forecast for the resort area. Takes no parameters; the location is fixed.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{},
			},
		},
		Run: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
			forecast, err := client.Forecast(ctx)
			if err != nil {
				return nil, err
			}
			days := make([]map[string]any, 0, len(forecast.Daily.Time))
			for i, day := range forecast.Daily.Time {
				entry := map[string]any{"date": day}
				if i < len(forecast.Daily.TempMax) {
					entry["temp_max"] = forecast.Daily.TempMax[i]
				}
				if i < len(forecast.Daily.TempMin) {
					entry["temp_min"] = forecast.Daily.TempMin[i]
				}
				if i < len(forecast.Daily.Precipitation) {
					entry["precipitation_mm"] = forecast.Daily.Precipitation[i]
				}
				if i < len(forecast.Daily.WeatherCode) {
					entry["weather_code"] = forecast.Daily.WeatherCode[i]
				}
				days = append(days, entry)
			}
			return map[string]any{
				"current": map[string]any{
					"temperature":  forecast.CurrentWeather.Temperature,
					"wind_speed":   forecast.CurrentWeather.WindSpeed,
					"weather_code": forecast.CurrentWeather.WeatherCode,
					"time":         forecast.CurrentWeather.Time,
				},
				"daily": days,
			}, nil
		},
	}
}
