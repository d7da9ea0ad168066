package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/surelook/holmes-mcp/internal/profile"
)

// ProfileTools holds the profile provider used by who_is_this.
type ProfileTools struct {
	Provider profile.Provider
}

type WhoIsThisInput struct {
	LinkedInURL string `json:"linkedin_url" jsonschema:"LinkedIn profile URL of the person"`
}

// WhoIsThis never fails the call: every lookup error becomes the structured
// error value.
func (t *ProfileTools) WhoIsThis(ctx context.Context, _ *mcp.CallToolRequest, input WhoIsThisInput) (*mcp.CallToolResult, any, error) {
	if t.Provider == nil {
		return errorPayload(profile.ErrMissingCredential.Error(), false)
	}
	prof, err := t.Provider.FetchProfile(ctx, input.LinkedInURL)
	if err != nil {
		log.WithError(err).WithField("linkedin_url", input.LinkedInURL).Warn("profile lookup failed")
		return errorPayload(err.Error(), false)
	}
	return toolJSON(prof)
}
