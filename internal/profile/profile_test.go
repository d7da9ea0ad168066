package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

func TestNormalizeFullName(t *testing.T) {
	prof := Normalize([]byte(`{"full_name":"  Ada  Lovelace ","first_name":"A","last_name":"L"}`))
	assert.Equal(t, "  Ada  Lovelace ", prof.Name, "full_name is used verbatim")
}

func TestNormalizeFirstLast(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"both", `{"first_name":"Grace","last_name":"Hopper"}`, "Grace Hopper"},
		{"first only", `{"first_name":"Grace"}`, "Grace"},
		{"last only", `{"last_name":"Hopper"}`, "Hopper"},
		{"blank full name", `{"full_name":"  ","first_name":"Grace","last_name":"Hopper"}`, "Grace Hopper"},
		{"nothing", `{}`, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize([]byte(tt.raw)).Name)
		})
	}
}

func TestNormalizeCurrentExperience(t *testing.T) {
	raw := `{"full_name":"Ada","experiences":[` +
		`{"title":"Analyst","company":"Babbage & Co","is_current":false},` +
		`{"title":"Engineer","company":"Analytical Engines","is_current":true},` +
		`{"title":"Advisor","company":"Royal Society"}]}`

	prof := Normalize([]byte(raw))
	assert.Equal(t, "Engineer at Analytical Engines", prof.Company)
	assert.Equal(t, "Engineer", prof.Title)
	assert.Equal(t, "Analytical Engines", prof.CompanyName)
	assert.Equal(t, "Ada, Engineer at Analytical Engines", prof.Summary)
}

func TestNormalizeNoCurrentFlagUsesFirst(t *testing.T) {
	raw := `{"experiences":[{"title":"Analyst","company":"First Co"},{"title":"Lead","company":"Second Co"}]}`
	assert.Equal(t, "Analyst at First Co", Normalize([]byte(raw)).Company)
}

func TestNormalizeEmptyExperiences(t *testing.T) {
	assert.Equal(t, Unknown, Normalize([]byte(`{"experiences":[]}`)).Company)
	assert.Equal(t, Unknown, Normalize([]byte(`{}`)).Company)
}

func TestNormalizeExperienceShapes(t *testing.T) {
	base := `{"full_name":"Ada","experiences":[{"title":"CTO"}]}`

	withObject, err := sjson.Set(base, "experiences.0.company", map[string]any{"name": "Engines Ltd"})
	require.NoError(t, err)
	assert.Equal(t, "CTO at Engines Ltd", Normalize([]byte(withObject)).Company)

	withCompanyName, err := sjson.Set(base, "experiences.0.company_name", "Engines Ltd")
	require.NoError(t, err)
	assert.Equal(t, "CTO at Engines Ltd", Normalize([]byte(withCompanyName)).Company)

	titleOnly := Normalize([]byte(base))
	assert.Equal(t, "CTO", titleOnly.Company)

	objectWithoutName, err := sjson.Set(base, "experiences.0.company", map[string]any{"id": 42})
	require.NoError(t, err)
	objectWithoutName, err = sjson.Set(objectWithoutName, "experiences.0.company_name", "Engines Ltd")
	require.NoError(t, err)
	assert.Equal(t, "CTO at Engines Ltd", Normalize([]byte(objectWithoutName)).Company,
		"company object without a name falls back to company_name")

	currentKey, err := sjson.Set(`{"experience":[{"company":"A"},{"company":"B"}]}`, "experience.1.current", true)
	require.NoError(t, err)
	assert.Equal(t, "B", Normalize([]byte(currentKey)).Company)
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "London", Normalize([]byte(`{"location":"London"}`)).Location)
	assert.Equal(t, "London, United Kingdom",
		Normalize([]byte(`{"city":"London","country_full_name":"United Kingdom"}`)).Location)
}

func TestFetchProfileSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "https://www.linkedin.com/in/ada", r.URL.Query().Get("profile_url"))
		w.Write([]byte(`{"first_name":"Ada","last_name":"Lovelace","headline":"Mathematician",` +
			`"experiences":[{"title":"Analyst","company":"Engines","is_current":true}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("secret", srv.URL)
	prof, err := p.FetchProfile(context.Background(), "https://www.linkedin.com/in/ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", prof.Name)
	assert.Equal(t, "Analyst at Engines", prof.Company)
	assert.Equal(t, "Mathematician", prof.Headline)
	assert.Equal(t, "https://www.linkedin.com/in/ada", prof.LinkedInURL)
}

func TestFetchProfileMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewHTTPProvider("", srv.URL).FetchProfile(context.Background(), "https://www.linkedin.com/in/ada")
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.False(t, called, "no request without a key")
}

func TestFetchProfileNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"description":"Person not found"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider("k", srv.URL).FetchProfile(context.Background(), "https://www.linkedin.com/in/nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Person not found")
}

func TestFetchProfileOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"full_name":"`))
		w.Write([]byte(strings.Repeat("a", maxResponseBytes)))
		w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider("k", srv.URL).FetchProfile(context.Background(), "https://www.linkedin.com/in/ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// "é" is two bytes; cutting at 2 would split it.
	got := truncate("aéb", 2)
	assert.Equal(t, "a...", got)
	assert.True(t, utf8.ValidString(got))

	long := strings.Repeat("日本", 100)
	assert.True(t, utf8.ValidString(truncate(long, 200)))
}

func TestFetchProfileMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>rate limited</html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider("k", srv.URL).FetchProfile(context.Background(), "https://www.linkedin.com/in/ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestFetchProfileNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPProvider("k", url).FetchProfile(context.Background(), "https://www.linkedin.com/in/ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile request")
}

func TestNewHTTPProviderDefaults(t *testing.T) {
	p := NewHTTPProvider("k", "")
	assert.Equal(t, DefaultBaseURL, p.BaseURL)
	require.NotNil(t, p.HTTPClient)
	assert.Equal(t, defaultTimeout, p.HTTPClient.Timeout)
}
