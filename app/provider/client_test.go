package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/provider"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokenBody   interface{}
	profileBody interface{}
	tokenForm   map[string]string
	accessToken string
}

func (f *fakeProvider) server(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		f.tokenForm = map[string]string{}
		for key := range r.PostForm {
			f.tokenForm[key] = r.PostForm.Get(key)
		}
		_ = json.NewEncoder(w).Encode(f.tokenBody)
	})
	mux.HandleFunc("/api/user.json", func(w http.ResponseWriter, r *http.Request) {
		f.accessToken = r.URL.Query().Get("access_token")
		_ = json.NewEncoder(w).Encode(f.profileBody)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func exchangeFor(srv *httptest.Server) provider.Exchange {
	return provider.NewExchange(config.ProviderConfig{
		Name:         "mlh",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     srv.URL + "/oauth/token",
		UserURL:      srv.URL + "/api/user.json",
		Timeout:      2 * time.Second,
	}, "auth-code", "https://my.hackathon.test/user/callback/mlh")
}

func TestExchangeCode(t *testing.T) {
	fake := &fakeProvider{tokenBody: map[string]string{"access_token": "access-123"}}
	srv := fake.server(t)

	accessToken, err := provider.NewClient(srv.Client()).ExchangeCode(context.Background(), exchangeFor(srv))
	require.NoError(t, err)
	assert.Equal(t, "access-123", accessToken)
	assert.Equal(t, map[string]string{
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"code":          "auth-code",
		"redirect_uri":  "https://my.hackathon.test/user/callback/mlh",
		"grant_type":    "authorization_code",
	}, fake.tokenForm)
}

func TestExchangeCodeFailures(t *testing.T) {
	cases := map[string]interface{}{
		"error field":   map[string]string{"error": "invalid_grant", "access_token": "ignored"},
		"empty token":   map[string]string{},
		"not an object": []string{"unexpected"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeProvider{tokenBody: body}
			srv := fake.server(t)

			_, err := provider.NewClient(srv.Client()).ExchangeCode(context.Background(), exchangeFor(srv))
			assert.ErrorIs(t, err, provider.ErrAuthFailed)
		})
	}
}

func TestExchangeCodeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	ex := exchangeFor(srv)
	srv.Close()

	_, err := provider.NewClient(nil).ExchangeCode(context.Background(), ex)
	assert.ErrorIs(t, err, provider.ErrAuthFailed)
}

func TestFetchProfile(t *testing.T) {
	fake := &fakeProvider{profileBody: map[string]interface{}{
		"status": "OK",
		"data": map[string]interface{}{
			"email":                "ada@example.com",
			"first_name":           "Ada",
			"last_name":            "Lovelace",
			"major":                "Mathematics",
			"phone_number":         "+44 1234",
			"shirt_size":           "Women's - M",
			"dietary_restrictions": "Vegan",
			"school":               map[string]string{"name": "University of London"},
		},
	}}
	srv := fake.server(t)

	profile, err := provider.NewClient(srv.Client()).FetchProfile(context.Background(), exchangeFor(srv), "access-123")
	require.NoError(t, err)
	assert.Equal(t, "access-123", fake.accessToken)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.FullName())
	assert.Equal(t, "University of London", profile.School)
	assert.Equal(t, "Vegan", profile.DietaryRestrictions)
}

func TestFetchProfileFailures(t *testing.T) {
	cases := map[string]interface{}{
		"status not ok": map[string]interface{}{"status": "ERROR", "data": map[string]string{"email": "a@b.c"}},
		"missing email": map[string]interface{}{"status": "ok", "data": map[string]string{"first_name": "Ada"}},
		"no status":     map[string]interface{}{"data": map[string]string{"email": "a@b.c"}},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeProvider{profileBody: body}
			srv := fake.server(t)

			_, err := provider.NewClient(srv.Client()).FetchProfile(context.Background(), exchangeFor(srv), "token")
			assert.ErrorIs(t, err, provider.ErrAuthFailed)
		})
	}
}

func TestFetchProfileMissingOptionalFields(t *testing.T) {
	fake := &fakeProvider{profileBody: map[string]interface{}{
		"status": "ok",
		"data":   map[string]string{"email": "ada@example.com", "first_name": "Ada"},
	}}
	srv := fake.server(t)

	profile, err := provider.NewClient(srv.Client()).FetchProfile(context.Background(), exchangeFor(srv), "token")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FullName())
	assert.Empty(t, profile.School)
	assert.Empty(t, profile.DietaryRestrictions)
}
