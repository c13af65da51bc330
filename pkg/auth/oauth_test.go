package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"golang.org/x/oauth2"
)

func TestTokenSourceWithoutTokenIsNotSignedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := TokenSource(context.Background(), Scopes)
	if !errors.Is(err, model.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", TokenFile)
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := saveToken(path, tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	loaded, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" || !loaded.Expiry.Equal(tok.Expiry) {
		t.Errorf("unexpected token %+v", loaded)
	}
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingTokenSourcePersistsRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFile)
	refreshed := &oauth2.Token{AccessToken: "new", RefreshToken: "r"}
	ts := &savingTokenSource{
		src:  staticSource{tok: refreshed},
		path: path,
		last: &oauth2.Token{AccessToken: "old", RefreshToken: "r"},
	}

	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	saved, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("expected refreshed token on disk: %v", err)
	}
	if saved.AccessToken != "new" {
		t.Errorf("expected saved access token 'new', got %q", saved.AccessToken)
	}
}

func TestLocalRedirect(t *testing.T) {
	cases := map[string]string{
		"urn:ietf:wg:oauth:2.0:oob":        "http://localhost:6789/oauth2callback",
		"http://localhost":                 "http://localhost:6789",
		"http://127.0.0.1:9999/cb":         "http://127.0.0.1:6789/cb",
		"https://example.com/oauth/finish": "https://example.com/oauth/finish",
	}
	for in, want := range cases {
		if got := localRedirect(in); got != want {
			t.Errorf("localRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
