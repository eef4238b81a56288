package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrAuthFailed covers every way a provider round trip can go wrong:
// rejection, transport failure or an unreadable answer.
var ErrAuthFailed = errors.New("provider authentication failed")

const maxResponseBytes = 1 << 20

type Profile struct {
	Email               string
	FirstName           string
	LastName            string
	Major               string
	School              string
	PhoneNumber         string
	ShirtSize           string
	DietaryRestrictions string
}

// FullName joins first and last name the way the account directory stores it.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type profileResponse struct {
	Status string `json:"status"`
	Data   struct {
		Email               string `json:"email"`
		FirstName           string `json:"first_name"`
		LastName            string `json:"last_name"`
		Major               string `json:"major"`
		PhoneNumber         string `json:"phone_number"`
		ShirtSize           string `json:"shirt_size"`
		DietaryRestrictions string `json:"dietary_restrictions"`
		School              struct {
			Name string `json:"name"`
		} `json:"school"`
	} `json:"data"`
}

type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient}
}

// ExchangeCode trades the authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, ex Exchange) (string, error) {
	form := url.Values{}
	form.Set("client_id", ex.clientID)
	form.Set("client_secret", ex.clientSecret)
	form.Set("code", ex.code)
	form.Set("redirect_uri", ex.redirectURL)
	form.Set("grant_type", "authorization_code")

	ctx, cancel := ex.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ex.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var resp tokenResponse
	if err = c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrAuthFailed, resp.Error)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	return resp.AccessToken, nil
}

func (c *Client) FetchProfile(ctx context.Context, ex Exchange, accessToken string) (*Profile, error) {
	endpoint, err := url.Parse(ex.userURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	query := endpoint.Query()
	query.Set("access_token", accessToken)
	endpoint.RawQuery = query.Encode()

	ctx, cancel := ex.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	var resp profileResponse
	if err = c.do(req, &resp); err != nil {
		return nil, err
	}
	if !strings.EqualFold(resp.Status, "ok") {
		return nil, fmt.Errorf("%w: profile status %q", ErrAuthFailed, resp.Status)
	}
	if strings.TrimSpace(resp.Data.Email) == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrAuthFailed)
	}

	return &Profile{
		Email:               strings.TrimSpace(resp.Data.Email),
		FirstName:           resp.Data.FirstName,
		LastName:            resp.Data.LastName,
		Major:               resp.Data.Major,
		School:              resp.Data.School.Name,
		PhoneNumber:         resp.Data.PhoneNumber,
		ShirtSize:           resp.Data.ShirtSize,
		DietaryRestrictions: resp.Data.DietaryRestrictions,
	}, nil
}

// do decodes the body whatever the status code: providers report errors in
// the JSON payload.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrAuthFailed, req.URL.Host, err)
	}
	return nil
}

func (e Exchange) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
