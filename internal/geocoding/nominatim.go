package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/vocal-weather/internal/httpx"
)

// Nominatim geocodes with the OpenStreetMap search API.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *httpx.Client
}

func NewNominatim(baseURL, userAgent string, client *httpx.Client) *Nominatim {
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

func (n *Nominatim) Name() string {
	return "nominatim"
}

func (n *Nominatim) Geocode(ctx context.Context, city string) (Coordinates, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("format", "jsonv2")
		values.Set("limit", "1")

		req, err := http.NewRequest(http.MethodGet, n.baseURL+"/search?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		// OSM usage policy requires an identifying user agent.
		req.Header.Set("User-Agent", n.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := n.client.Do(ctx, buildRequest)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()

	var places []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(places) == 0 || places[0].Lat == "" || places[0].Lon == "" {
		return Coordinates{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}
