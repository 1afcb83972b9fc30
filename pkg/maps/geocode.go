package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

const geocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// geocodeResponse is the JSON response from the Google Geocoding API.
type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

type geocodeResult struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// PostalCode geocodes an address and returns the postal-code component of the
// first result. A missing result or missing component yields ZipNotFound with
// a nil error; only transport-level failures return an error.
func (c *mapsClient) PostalCode(ctx context.Context, address string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "maps: geocode rate limit")
	}

	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", eris.Wrap(err, "maps: geocode build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "maps: geocode request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("maps: geocode returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "maps: geocode read body")
	}

	var geocodeResp geocodeResponse
	if err := json.Unmarshal(body, &geocodeResp); err != nil {
		return "", eris.Wrap(err, "maps: geocode parse response")
	}

	if len(geocodeResp.Results) == 0 {
		return ZipNotFound, nil
	}

	for _, component := range geocodeResp.Results[0].AddressComponents {
		for _, typ := range component.Types {
			if typ == "postal_code" {
				return component.LongName, nil
			}
		}
	}
	return ZipNotFound, nil
}
