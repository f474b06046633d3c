package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Scenario names accepted by POST /scenario/{name}.
const (
	ScenarioOptimization = "recruiter_1"
	ScenarioConstraint   = "recruiter_2"
)

func (c *Client) Book(ctx context.Context, size int) (BookingResult, error) {
	var result BookingResult
	if err := c.doJSON(ctx, http.MethodPost, "/book", BookingRequest{Size: size}, &result); err != nil {
		return BookingResult{}, err
	}
	if result.BookedRooms == nil {
		return BookingResult{}, fmt.Errorf("decode /book response: missing booked_rooms")
	}
	return result, nil
}

func (c *Client) Reset(ctx context.Context) error {
	return c.doStatus(ctx, http.MethodPost, "/reset")
}

func (c *Client) Randomize(ctx context.Context) error {
	return c.doStatus(ctx, http.MethodPost, "/randomize")
}

func (c *Client) SeedScenario(ctx context.Context, name string) error {
	if name != ScenarioOptimization && name != ScenarioConstraint {
		return fmt.Errorf("unknown scenario %q", name)
	}
	return c.doStatus(ctx, http.MethodPost, "/scenario/"+url.PathEscape(name))
}
