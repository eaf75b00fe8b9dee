package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// Schema identifies how a provider reports the address in its response
type Schema string

const (
	// SchemaIP responses carry the address in an "ip" field
	SchemaIP Schema = "ip"
	// SchemaOrigin responses carry the request origin in an "origin"
	// field, as echo services do
	SchemaOrigin Schema = "origin"
)

var errFieldMissing = errors.New("address field missing")

// Extract pulls the address out of a response body
func (s Schema) Extract(body []byte) (string, error) {
	switch s {
	case SchemaIP:
		return stringField(body, "ip")
	case SchemaOrigin:
		origin, err := stringField(body, "origin")
		if err != nil {
			return "", err
		}
		// Proxied requests report "client, proxy"
		first, _, _ := strings.Cut(origin, ",")
		return strings.TrimSpace(first), nil
	default:
		return "", fmt.Errorf("unknown schema %q", s)
	}
}

// Valid reports whether the schema is known
func (s Schema) Valid() bool {
	return s == SchemaIP || s == SchemaOrigin
}

// Provider is one address lookup service
type Provider struct {
	Name   string
	URL    string
	Schema Schema
}

func stringField(body []byte, key string) (string, error) {
	value, err := jsonparser.GetString(body, key)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return "", fmt.Errorf("%w: %s", errFieldMissing, key)
	}
	if err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", errFieldMissing, key)
	}
	return value, nil
}
