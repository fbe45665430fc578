package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MinChargeableGrams is the courier's minimum billable weight; anything
// lighter is billed as 1000g.
const MinChargeableGrams = 1000

// preferredService is the tier picked when the courier offers it.
const preferredService = "REG"

// ServiceOption is one courier service tier with its cost.
type ServiceOption struct {
	Service string `json:"service"`
	Cost    int64  `json:"cost"`
	ETD     string `json:"etd,omitempty"`
}

type rateResponse struct {
	Results []ServiceOption `json:"results"`
}

// Client looks up shipping costs from the courier-rate provider. On any
// upstream failure the caller gets the configured default estimate instead
// of an error; checkout never blocks on the courier being down.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	origin      string
	defaultCost int64
}

// NewClient returns a rate client. origin is the provider's city id for the
// warehouse; defaultCost is the estimate used when no rate can be fetched.
func NewClient(baseURL, apiKey, origin string, defaultCost int64) *Client {
	return &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		origin:      origin,
		defaultCost: defaultCost,
	}
}

// EstimateCost returns the shipping cost for a destination and weight.
// Picks the regular tier when offered, else the cheapest option, else the
// default estimate. The weight is floored to the minimum billable 1000g.
func (c *Client) EstimateCost(ctx context.Context, destinationID string, grams int) int64 {
	options, err := c.fetchRates(ctx, destinationID, chargeableGrams(grams))
	if err != nil {
		log.Printf("courier rate lookup failed dest=%s: %v", destinationID, err)
		return c.defaultCost
	}
	return pickOption(options, c.defaultCost)
}

func chargeableGrams(grams int) int {
	if grams < MinChargeableGrams {
		return MinChargeableGrams
	}
	return grams
}

func pickOption(options []ServiceOption, defaultCost int64) int64 {
	var cheapest int64 = -1
	for _, opt := range options {
		if strings.EqualFold(opt.Service, preferredService) && opt.Cost > 0 {
			return opt.Cost
		}
		if opt.Cost > 0 && (cheapest < 0 || opt.Cost < cheapest) {
			cheapest = opt.Cost
		}
	}
	if cheapest > 0 {
		return cheapest
	}
	return defaultCost
}

func (c *Client) fetchRates(ctx context.Context, destinationID string, grams int) ([]ServiceOption, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("courier base url not configured")
	}

	form := url.Values{}
	form.Set("origin", c.origin)
	form.Set("destination", destinationID)
	form.Set("weight", strconv.Itoa(grams))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cost", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate request: unexpected status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}
	return body.Results, nil
}
