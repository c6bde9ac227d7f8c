// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-conf-sync/models"
)

func signedTestToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestAdapter(t *testing.T, handler http.Handler) ServerAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPServerAdapter(HTTPClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestAuthenticate(t *testing.T) {
	token := signedTestToken(t, "alice")

	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var creds models.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds.Username)

		w.Header().Set("Authorization", "Bearer "+token)
		w.WriteHeader(http.StatusOK)
	}))

	username, err := a.Authenticate(context.Background(), models.Credentials{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, token, a.Token())
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := a.Authenticate(context.Background(), models.Credentials{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, a.Token())
}

func TestUploadProfile_SendsBearerToken(t *testing.T) {
	var gotAuth string
	var gotReq models.UploadRequest

	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profiles/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
	}))
	a.SetToken("my-token")

	err := a.UploadProfile(context.Background(), models.UploadRequest{
		Profile:  models.ConfigProfile{ID: "abc123"},
		Archive:  []byte("blob"),
		Checksum: "deadbeef",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer my-token", gotAuth)
	assert.Equal(t, "abc123", gotReq.Profile.ID)
	assert.Equal(t, "deadbeef", gotReq.Checksum)
}

func TestDownloadProfile(t *testing.T) {
	want := models.DownloadResponse{
		Profile:  models.ConfigProfile{ID: "abc123", Name: "remote-setup"},
		Archive:  []byte("blob"),
		Checksum: "deadbeef",
	}

	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profiles/abc123", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(want))
	}))

	got, err := a.DownloadProfile(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, want.Profile.ID, got.Profile.ID)
	assert.Equal(t, want.Archive, got.Archive)
	assert.Equal(t, want.Checksum, got.Checksum)
}

func TestDownloadProfile_NotFound(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := a.DownloadProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestDeleteProfile(t *testing.T) {
	var gotMethod, gotPath string
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, a.DeleteProfile(context.Background(), "abc123"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/profiles/abc123", gotPath)
}

func TestSearchProfiles(t *testing.T) {
	want := []models.ConfigProfile{{ID: "a"}, {ID: "b"}}

	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profiles/search", r.URL.Path)

		var req models.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dark", req.Query)

		require.NoError(t, json.NewEncoder(w).Encode(want))
	}))

	got, err := a.SearchProfiles(context.Background(), models.SearchRequest{Query: "dark"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
}

func Test_parseBearerToken(t *testing.T) {
	token, err := parseBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = parseBearerToken("abc")
	assert.Error(t, err)
	_, err = parseBearerToken("Bearer ")
	assert.Error(t, err)
	_, err = parseBearerToken("")
	assert.Error(t, err)
}

func Test_parseUsernameFromJWT(t *testing.T) {
	username, err := parseUsernameFromJWT(signedTestToken(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = parseUsernameFromJWT("not a token")
	assert.Error(t, err)

	_, err = parseUsernameFromJWT(signedTestToken(t, ""))
	assert.Error(t, err)
}

func Test_mapHTTPError_GenericStatus(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))

	err := a.UploadProfile(context.Background(), models.UploadRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 500")
	assert.Contains(t, err.Error(), "boom")
}
