package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"planboard/internal/geometry"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// optionalPoint reads an (x, y) pair. Both must be present.
func optionalPoint(req mcp.CallToolRequest, xKey, yKey string) (geometry.Point, bool) {
	args := req.GetArguments()
	x, okX := args[xKey].(float64)
	y, okY := args[yKey].(float64)
	return geometry.Pt(x, y), okX && okY
}

func requirePoint(req mcp.CallToolRequest, xKey, yKey string) (geometry.Point, error) {
	x, err := req.RequireFloat(xKey)
	if err != nil {
		return geometry.Point{}, err
	}
	y, err := req.RequireFloat(yKey)
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Pt(x, y), nil
}

func requireAnchor(req mcp.CallToolRequest, key string) (geometry.Anchor, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return "", err
	}
	a := geometry.Anchor(raw)
	if !a.Valid() {
		return "", fmt.Errorf("%s must be one of top, right, bottom, left", key)
	}
	return a, nil
}
