// Package catalog defines the identifiers, batches and results exchanged
// between the probe and the worker pool.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// Default remote catalog location.
const (
	DefaultBaseURL      = "https://static.packt-cdn.com"
	DefaultPathTemplate = "/products/{identifier}/summary"

	// IdentifierPlaceholder is substituted with the path-escaped identifier.
	IdentifierPlaceholder = "{identifier}"
)

// Identifier is an opaque token naming a catalog entry (e.g. an ISBN).
type Identifier string

// Batch is a contiguous slice of identifiers assigned to one worker at a time.
type Batch []Identifier

// Result records whether an identifier exists in the catalog.
type Result struct {
	Identifier Identifier `json:"identifier"`
	Exists     bool       `json:"exists"`
}

// Identifiers converts plain strings to identifiers.
func Identifiers(values ...string) []Identifier {
	ids := make([]Identifier, 0, len(values))
	for _, v := range values {
		ids = append(ids, Identifier(v))
	}
	return ids
}

// ProbeURL builds the existence probe URL for id.
//
// Example:
//
//	ProbeURL("https://static.packt-cdn.com", DefaultPathTemplate, "9781838823818")
//	// https://static.packt-cdn.com/products/9781838823818/summary
func ProbeURL(baseURL, pathTemplate string, id Identifier) (string, error) {
	if id == "" {
		return "", fmt.Errorf("identifier is empty")
	}
	if !strings.Contains(pathTemplate, IdentifierPlaceholder) {
		return "", fmt.Errorf("path template %q has no %s placeholder", pathTemplate, IdentifierPlaceholder)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if base.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}

	path := strings.ReplaceAll(pathTemplate, IdentifierPlaceholder, url.PathEscape(string(id)))
	return strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(path, "/"), nil
}
