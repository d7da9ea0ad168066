// Package resources serves the static MCP resources: a templated greeting
// and a runtime/platform description.
package resources

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

const (
	GreetingTemplate = "greeting://{name}"
	SystemInfoURI    = "system://info"
)

var greetingTemplate = uritemplate.MustNew(GreetingTemplate)

// Schemes lists the URI schemes this package serves.
var Schemes = map[string]bool{
	"greeting": true,
	"system":   true,
}

// Greeting renders the greeting for name.
func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

// SystemInfo describes the running process and host.
func SystemInfo(serverName, version string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Server: %s %s\n", serverName, version)
	fmt.Fprintf(&b, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "CPUs: %d\n", runtime.NumCPU())
	if k := kernelInfo(); k != "" {
		fmt.Fprintf(&b, "Kernel: %s\n", k)
	}
	if host, err := os.Hostname(); err == nil {
		fmt.Fprintf(&b, "Hostname: %s\n", host)
	}
	return b.String()
}

// Handlers holds the resource handlers for registration on an mcp.Server.
type Handlers struct {
	ServerName string
	Version    string
}

// Register adds the greeting template and system info resource to srv.
func (h *Handlers) Register(srv *mcp.Server) {
	srv.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "greeting",
		URITemplate: GreetingTemplate,
		Description: "Get a greeting for a name",
		MIMEType:    "text/plain",
	}, h.ReadGreeting)

	srv.AddResource(&mcp.Resource{
		Name:        "system_info",
		URI:         SystemInfoURI,
		Description: "Runtime and platform information for this server",
		MIMEType:    "text/plain",
	}, h.ReadSystemInfo)
}

func (h *Handlers) ReadGreeting(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	values := greetingTemplate.Match(uri)
	if values == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return textResult(uri, Greeting(values.Get("name").String())), nil
}

func (h *Handlers) ReadSystemInfo(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return textResult(req.Params.URI, SystemInfo(h.ServerName, h.Version)), nil
}

func textResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}
}
