package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresSecret(t *testing.T) {
	m, err := New("")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m, err := New("test-secret")
	require.NoError(t, err)

	token, err := m.IssueToken(42, "alice")
	require.NoError(t, err)

	identity, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 42, Username: "alice"}, identity)
}

func TestVerify_Expiry(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	now := issuedAt
	m, err := New("test-secret", WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	token, err := m.IssueToken(1, "bob")
	require.NoError(t, err)

	now = issuedAt.Add(DefaultTokenTTL - time.Minute)
	_, err = m.VerifyToken(token)
	assert.NoError(t, err)

	now = issuedAt.Add(DefaultTokenTTL + time.Minute)
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Rejects(t *testing.T) {
	m, err := New("test-secret")
	require.NoError(t, err)
	other, err := New("other-secret")
	require.NoError(t, err)

	foreign, err := other.IssueToken(1, "mallory")
	require.NoError(t, err)
	valid, err := m.IssueToken(1, "alice")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "tampered", token: valid[:len(valid)-2] + "xx"},
		{name: "alg none", token: "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VySWQiOjF9."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookies []*http.Cookie
		want    string
		wantErr error
	}{
		{
			name:   "bearer header",
			header: "Bearer header-token",
			want:   "header-token",
		},
		{
			name:   "lowercase scheme",
			header: "bearer header-token",
			want:   "header-token",
		},
		{
			name:    "cookie",
			cookies: []*http.Cookie{{Name: DefaultCookieName, Value: "cookie-token"}},
			want:    "cookie-token",
		},
		{
			name:    "header wins over cookie",
			header:  "Bearer header-token",
			cookies: []*http.Cookie{{Name: DefaultCookieName, Value: "cookie-token"}},
			want:    "header-token",
		},
		{
			name:   "cookie among others",
			header: "Basic dXNlcjpwYXNz",
			cookies: []*http.Cookie{
				{Name: "theme", Value: "dark"},
				{Name: DefaultCookieName, Value: "a=b=c"},
				{Name: "other", Value: "x"},
			},
			want: "a=b=c",
		},
		{
			name:    "similar cookie name",
			cookies: []*http.Cookie{{Name: "x_" + DefaultCookieName, Value: "nope"}},
			wantErr: ErrNoToken,
		},
		{
			name:    "nothing",
			wantErr: ErrNoToken,
		},
		{
			name:    "empty bearer",
			header:  "Bearer ",
			wantErr: ErrNoToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}

			got, err := ExtractToken(req, DefaultCookieName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
