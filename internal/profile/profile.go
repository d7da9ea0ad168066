// Package profile resolves a professional-network profile URL into a short
// name and company summary through a third-party enrichment API.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/surelook/holmes-mcp/internal/models"
)

const (
	// DefaultBaseURL is the enrichment endpoint used when none is configured.
	DefaultBaseURL = "https://enrichlayer.com/api/v2/profile"

	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a provider response is read.
	maxResponseBytes = 1 << 20

	// Unknown stands in for a name or company the provider did not return.
	Unknown = "Unknown"
)

// ErrMissingCredential is returned when no API key is configured.
var ErrMissingCredential = errors.New("profile API key not configured")

// Provider fetches and normalizes a profile.
type Provider interface {
	FetchProfile(ctx context.Context, profileURL string) (*models.Profile, error)
}

// HTTPProvider calls the enrichment API with a bearer key.
type HTTPProvider struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPProvider returns a provider for apiKey. An empty baseURL selects
// DefaultBaseURL.
func NewHTTPProvider(apiKey, baseURL string) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPProvider{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchProfile looks up profileURL. Missing credentials, transport failures,
// non-2xx statuses and malformed bodies are all returned as errors.
func (p *HTTPProvider) FetchProfile(ctx context.Context, profileURL string) (*models.Profile, error) {
	if p.APIKey == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(profileURL) == "" {
		return nil, fmt.Errorf("profile URL is required")
	}

	params := url.Values{}
	params.Set("profile_url", profileURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Accept", "application/json")

	httpClient := p.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read profile response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("profile response exceeds %d bytes", maxResponseBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("profile API returned status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 200))
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("malformed profile payload")
	}

	prof := Normalize(body)
	prof.LinkedInURL = profileURL
	return prof, nil
}

// Normalize extracts the fields we use from a provider payload. The shape
// is not fixed by the provider, so every lookup has a fallback.
func Normalize(raw []byte) *models.Profile {
	doc := gjson.ParseBytes(raw)

	prof := &models.Profile{
		Name:     resolveName(doc),
		Headline: doc.Get("headline").String(),
		Location: resolveLocation(doc),
	}

	exp, ok := currentExperience(doc)
	if ok {
		prof.Title = strings.TrimSpace(exp.Get("title").String())
		prof.CompanyName = companyName(exp)
	}
	prof.Company = companySummary(prof.Title, prof.CompanyName)
	prof.Summary = fmt.Sprintf("%s, %s", prof.Name, prof.Company)
	return prof
}

// resolveName prefers full_name as given, then first_name + last_name.
func resolveName(doc gjson.Result) string {
	if full := doc.Get("full_name").String(); strings.TrimSpace(full) != "" {
		return full
	}
	joined := strings.TrimSpace(doc.Get("first_name").String() + " " + doc.Get("last_name").String())
	if joined == "" {
		return Unknown
	}
	return joined
}

func resolveLocation(doc gjson.Result) string {
	if loc := doc.Get("location"); loc.Type == gjson.String && loc.String() != "" {
		return loc.String()
	}
	var parts []string
	for _, key := range []string{"city", "state", "country_full_name"} {
		if v := strings.TrimSpace(doc.Get(key).String()); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// currentExperience picks the first entry flagged current, else the first
// entry. It reports false for a missing or empty list.
func currentExperience(doc gjson.Result) (gjson.Result, bool) {
	list := doc.Get("experiences")
	if !list.IsArray() {
		list = doc.Get("experience")
	}
	entries := list.Array()
	if len(entries) == 0 {
		return gjson.Result{}, false
	}
	for _, e := range entries {
		if e.Get("is_current").Bool() || e.Get("current").Bool() {
			return e, true
		}
	}
	return entries[0], true
}

// companyName reads company as a string or as an object's name, then falls
// back to company_name.
func companyName(exp gjson.Result) string {
	company := exp.Get("company")
	name := company.String()
	if company.IsObject() {
		name = company.Get("name").String()
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return strings.TrimSpace(exp.Get("company_name").String())
}

func companySummary(title, company string) string {
	switch {
	case title != "" && company != "":
		return title + " at " + company
	case company != "":
		return company
	case title != "":
		return title
	}
	return Unknown
}

// truncate keeps at most n bytes of s without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
