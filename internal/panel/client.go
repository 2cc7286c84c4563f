package panel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Config holds the settings of the panel API
type Config struct {
	BaseURL  string
	Client   string // Client id, sent as api_key
	Secret   string
	DateFrom string
	PerPage  int64
	Include  string
	Timeout  time.Duration
}

// Client fetches participants from the panel management API
type Client struct {
	conf Config
	http *http.Client
	now  func() time.Time
}

// NewClient creates a panel API client
func NewClient(conf Config) *Client {
	return &Client{
		conf: conf,
		http: &http.Client{Timeout: conf.Timeout},
		now:  time.Now,
	}
}

// ParticipantsURL builds the signed url listing every participant
func (c *Client) ParticipantsURL(sig Signature) string {
	params := url.Values{}
	params.Set("date_from", c.conf.DateFrom)
	params.Set("per_page", strconv.FormatInt(c.conf.PerPage, 10))
	if c.conf.Include != "" {
		params.Set("include", c.conf.Include)
	}
	params.Set("api_key", c.conf.Client)
	params.Set("nonce", sig.Nonce)
	params.Set("timestamp", strconv.FormatInt(sig.Timestamp, 10))
	params.Set("signature", sig.Signature)

	return strings.TrimRight(c.conf.BaseURL, "/") + "/participants/?" + params.Encode()
}

// FetchParticipants gets every participant and returns the raw JSON of each one
func (c *Client) FetchParticipants(ctx context.Context) ([]gjson.Result, error) {
	sig, err := NewSignature(c.conf.Secret, c.now())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ParticipantsURL(sig), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	log.Info().Str("base_url", c.conf.BaseURL).Msg("Retrieving participants information from the API")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("panel api request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error().Err(err).Msg("Could not close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("panel api returned unexpected status %d", resp.StatusCode)
	}
	log.Info().Msg("Response status code is 200, connection to API is successful")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read panel api response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("panel api response is not valid json")
	}

	participants := gjson.GetBytes(body, "participants")
	if !participants.IsArray() {
		return nil, fmt.Errorf("panel api response has no participants list")
	}
	return participants.Array(), nil
}
