package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errBadStatus = errors.New("bad status")

type (
	// Message is a flash-style note from the server.
	Message struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}

	// Response is the persistence endpoint reply, Enabled is
	// authoritative for the control that issued the request.
	Response struct {
		Enabled  bool      `json:"enabled"`
		Revision string    `json:"revision,omitempty"`
		Messages []Message `json:"messages,omitempty"`
	}
)

// Client issues persistence calls over http.
type Client struct {
	hc *http.Client
}

// New creates client on top of given http.Client,
// nil is fine - http.DefaultClient will be used.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{hc: hc}
}

// Request performs single call, form (if non-nil) is sent as json body.
func (c *Client) Request(
	ctx context.Context,
	method, url string,
	form map[string]string,
) (rv *Response, err error) {
	var body bytes.Buffer

	if form != nil {
		if err = json.NewEncoder(&body).Encode(form); err != nil {
			return
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &body)
	if err != nil {
		return
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s", errBadStatus, res.Status)
	}

	rv = &Response{}

	if err = json.NewDecoder(res.Body).Decode(rv); err != nil {
		return nil, err
	}

	return rv, nil
}
