package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	smtpx "github.com/tanpawarit/Chative-Travel-Intake/pkg/smtp"
)

func writeCredentials(t *testing.T, dir, tokenURL string) string {
	t.Helper()
	path := filepath.Join(dir, "credentials.json")
	body := fmt.Sprintf(`{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"csecret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":%q,"redirect_uris":["http://localhost"]}}`, tokenURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{CredentialsFile: "credentials.json"}.Enabled())
	assert.True(t, Config{CredentialsFile: "credentials.json", TokenFile: "token.json"}.Enabled())
}

func TestSend(t *testing.T) {
	var gotPath string
	var gotRaw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Raw string `json:"raw"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRaw, _ = base64.URLEncoding.DecodeString(body.Raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	t.Cleanup(srv.Close)

	sender, err := newSender(context.Background(), Config{From: "trips@example.com", FromName: "Travel Assistant"},
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)

	err = sender.Send(context.Background(), smtpx.Message{
		To:      "traveller@example.com",
		Subject: "Your trip",
		HTML:    "<h1>Trip</h1>",
		Text:    "Trip",
	})
	require.NoError(t, err)

	assert.Equal(t, "/gmail/v1/users/me/messages/send", gotPath)
	assert.Contains(t, string(gotRaw), "traveller@example.com")
	assert.Contains(t, string(gotRaw), "trips@example.com")
	assert.Contains(t, string(gotRaw), "Your trip")
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"insufficient scope"}}`))
	}))
	t.Cleanup(srv.Close)

	sender, err := newSender(context.Background(), Config{},
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)

	err = sender.Send(context.Background(), smtpx.Message{To: "traveller@example.com", Subject: "x", HTML: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traveller@example.com")
}

func TestSaveTokenThenNewSender(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	dir := t.TempDir()
	cfg := Config{
		CredentialsFile: writeCredentials(t, dir, tokenSrv.URL),
		TokenFile:       filepath.Join(dir, "token.json"),
	}

	authURL, err := AuthCodeURL(cfg)
	require.NoError(t, err)
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, "gmail.send")

	require.NoError(t, SaveToken(context.Background(), cfg, " auth-code "))

	tok, err := readToken(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)

	_, err = NewSender(context.Background(), cfg)
	require.NoError(t, err)
}

func TestNewSenderErrors(t *testing.T) {
	dir := t.TempDir()
	creds := writeCredentials(t, dir, "https://oauth2.googleapis.com/token")
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))

	_, err := NewSender(context.Background(), Config{})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewSender(context.Background(), Config{CredentialsFile: creds, TokenFile: filepath.Join(dir, "missing.json")})
	require.Error(t, err)

	_, err = NewSender(context.Background(), Config{CredentialsFile: creds, TokenFile: empty})
	require.ErrorIs(t, err, ErrNotConfigured)
}
