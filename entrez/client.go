// Package entrez is a small, rate-limited client for the NCBI E-utilities
// endpoints used to assemble a protein catalogue: elink, esummary and
// efetch. Every request goes through one RetryPolicy and is followed by a
// fixed pause so that a run never exceeds the NCBI request rate.
package entrez

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	DefaultTool    = "metaprot"

	utilLink    = "elink.fcgi"
	utilSummary = "esummary.fcgi"
	utilFetch   = "efetch.fcgi"
)

// Client issues E-utilities requests sequentially. It is not safe for
// concurrent use; the NCBI rate limit makes fan-out pointless anyway.
type Client struct {
	BaseURL string
	Email   string
	APIKey  string
	Tool    string

	HTTPClient *http.Client
	Retry      RetryPolicy

	// MinInterval is the pause taken after every successful call.
	MinInterval time.Duration
}

// NewClient returns a client with the production endpoint, the default
// retry policy and a one second inter-call pause.
func NewClient(email, apiKey string) *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		Email:       email,
		APIKey:      apiKey,
		Tool:        DefaultTool,
		HTTPClient:  &http.Client{Timeout: 10 * time.Minute},
		Retry:       DefaultRetryPolicy(),
		MinInterval: DefaultMinInterval,
	}
}

func (c *Client) values() url.Values {
	v := url.Values{}
	if c.Email != "" {
		v.Set("email", c.Email)
	}
	if c.APIKey != "" {
		v.Set("api_key", c.APIKey)
	}
	if c.Tool != "" {
		v.Set("tool", c.Tool)
	}

	return v
}

// post sends one form-encoded request under the retry policy and hands the
// body of a 200 response to consume. The body is closed on every attempt.
// consume runs at most once: only failures before it is reached are retried.
func (c *Client) post(ctx context.Context, util, op string, v url.Values, consume func(io.Reader) error) error {
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	body := v.Encode()

	err := c.Retry.Do(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+util, strings.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{Util: util, Code: resp.StatusCode, Status: resp.Status, Body: string(msg)}
		}

		return consume(resp.Body)
	})
	if err != nil {
		return err
	}

	c.pause()

	return nil
}

func (c *Client) pause() {
	if c.MinInterval <= 0 {
		return
	}

	sleep := c.Retry.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(c.MinInterval)
}

// decodeXML decodes an E-utilities XML document. NCBI declares UTF-8, but
// archived records occasionally arrive in other encodings.
func decodeXML(r io.Reader, out interface{}) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder.Decode(out)
}
