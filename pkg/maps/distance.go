package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// distanceMatrixResponse is the JSON response from the Distance Matrix API.
type distanceMatrixResponse struct {
	Status string              `json:"status"`
	Rows   []distanceMatrixRow `json:"rows"`
}

type distanceMatrixRow struct {
	Elements []distanceMatrixElement `json:"elements"`
}

type distanceMatrixElement struct {
	Status   string `json:"status"`
	Duration *struct {
		Text  string `json:"text"`
		Value int    `json:"value"`
	} `json:"duration"`
}

// TravelTime returns the duration text for travel from origin to destination
// at the client's departure time. A response without a usable duration yields
// TravelTimeNotFound with a nil error; only transport-level failures error.
func (c *mapsClient) TravelTime(ctx context.Context, origin, destination string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "maps: distance matrix rate limit")
	}

	params := url.Values{
		"origins":        {origin},
		"destinations":   {destination},
		"mode":           {c.mode},
		"departure_time": {strconv.FormatInt(c.departureTime.Unix(), 10)},
		"key":            {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, distanceMatrixURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", eris.Wrap(err, "maps: distance matrix build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "maps: distance matrix request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("maps: distance matrix returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "maps: distance matrix read body")
	}

	var matrixResp distanceMatrixResponse
	if err := json.Unmarshal(body, &matrixResp); err != nil {
		return "", eris.Wrap(err, "maps: distance matrix parse response")
	}

	if matrixResp.Status != "OK" || len(matrixResp.Rows) == 0 || len(matrixResp.Rows[0].Elements) == 0 {
		return TravelTimeNotFound, nil
	}

	element := matrixResp.Rows[0].Elements[0]
	if element.Duration == nil {
		return TravelTimeNotFound, nil
	}
	return element.Duration.Text, nil
}
