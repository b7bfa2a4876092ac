// Package schemas holds the JSON schemas of the WebSocket frames.
package schemas

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Frame schema file names
const (
	Intent   = "intent.schema.json"
	Snapshot = "snapshot.schema.json"
	Error    = "error.schema.json"
)

const baseURL = "https://megapoly.local/schemas/"

//go:embed *.schema.json
var files embed.FS

// Compile loads the named schema from the embedded set
func Compile(name string) (*jsonschema.Schema, error) {
	b, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(baseURL+name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return c.Compile(baseURL + name)
}

// Reason returns the most specific message of a validation failure
func Reason(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
