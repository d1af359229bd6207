package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kplatou/harborwatt/core/weather"
	"github.com/kplatou/harborwatt/infra/logger"
)

const openMeteoAPIBase = "https://api.open-meteo.com/v1/forecast"

// OpenMeteo fetches hourly irradiance and temperature from the Open-Meteo
// forecast API.
type OpenMeteo struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewOpenMeteo creates a client against the public Open-Meteo endpoint.
func NewOpenMeteo() *OpenMeteo {
	return &OpenMeteo{
		baseURL:    openMeteoAPIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.New("weather"),
	}
}

// NewOpenMeteoWithBase creates a client against a custom endpoint. Tests
// point this at a local server.
func NewOpenMeteoWithBase(base string) *OpenMeteo {
	c := NewOpenMeteo()
	c.baseURL = base
	return c
}

type openMeteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
		Shortwave     []float64 `json:"shortwave_radiation"`
		DirectNormal  []float64 `json:"direct_normal_irradiance"`
		Diffuse       []float64 `json:"diffuse_radiation"`
		WindSpeed10m  []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// Fetch returns hourly samples covering [from, to]. Hours outside the API
// response are simply absent; callers fall back to weather.Default.
func (c *OpenMeteo) Fetch(ctx context.Context, lat, lon float64, from, to time.Time) ([]weather.Sample, error) {
	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%.4f", lat))
	params.Add("longitude", fmt.Sprintf("%.4f", lon))
	params.Add("hourly", "temperature_2m,shortwave_radiation,direct_normal_irradiance,diffuse_radiation,wind_speed_10m")
	params.Add("start_date", from.UTC().Format("2006-01-02"))
	params.Add("end_date", to.UTC().Format("2006-01-02"))
	params.Add("wind_speed_unit", "ms")
	params.Add("timezone", "UTC")

	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}
	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	samples := make([]weather.Sample, 0, len(data.Hourly.Time))
	for i, ts := range data.Hourly.Time {
		st, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			c.log.Warnf("skipping sample with bad timestamp %q: %v", ts, err)
			continue
		}
		st = st.UTC()
		if st.Before(from.Truncate(time.Hour)) || st.After(to) {
			continue
		}
		s := weather.Sample{Time: st}
		if i < len(data.Hourly.Temperature2m) {
			s.TempC = data.Hourly.Temperature2m[i]
		}
		if i < len(data.Hourly.Shortwave) {
			s.GHI = data.Hourly.Shortwave[i]
		}
		if i < len(data.Hourly.DirectNormal) {
			s.DNI = data.Hourly.DirectNormal[i]
		}
		if i < len(data.Hourly.Diffuse) {
			s.DHI = data.Hourly.Diffuse[i]
		}
		if i < len(data.Hourly.WindSpeed10m) {
			s.WindMS = data.Hourly.WindSpeed10m[i]
		}
		samples = append(samples, s)
	}
	return samples, nil
}
