package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Top-level configuration keys in the order they are written back out.
// Unknown keys follow in lexical order.
var configKeyOrder = []string{"common", "scenarios", "logging", "output"}

// editorRequest is the JSON body the browser editor posts. The config may
// be wrapped as {"config": {...}, "options": {...}} or sent bare.
type editorRequest struct {
	config  map[string]any
	options forecastOptions
}

func decodeEditorRequest(r *http.Request) (editorRequest, error) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return editorRequest{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	req := editorRequest{config: payload}
	if req.config == nil {
		req.config = map[string]any{}
	}

	if raw, ok := payload["config"]; ok {
		wrapped, ok := raw.(map[string]any)
		if !ok {
			return editorRequest{}, errors.New("invalid config payload: expected object")
		}
		req.config = wrapped
	}
	if raw, ok := payload["options"]; ok {
		options, ok := raw.(map[string]any)
		if !ok {
			return editorRequest{}, errors.New("invalid options payload: expected object")
		}
		req.options.Optimize = coerceBool(options["optimize"])
	}
	return req, nil
}

// configYAML renders an editor payload as a YAML document with a stable
// key order so exports diff cleanly.
func configYAML(payload map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		if !slices.Contains(configKeyOrder, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	for i := len(configKeyOrder) - 1; i >= 0; i-- {
		if _, ok := payload[configKeyOrder[i]]; ok {
			keys = slices.Insert(keys, 0, configKeyOrder[i])
		}
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		value := &yaml.Node{}
		if err := value.Encode(payload[key]); err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	return yaml.Marshal(doc)
}

func (h *handler) handleForecastEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecastEditor"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	req, err := decodeEditorRequest(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	body, err := configYAML(req.config)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}
	h.runForecast(w, r, body, start, op, req.options)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	req, err := decodeEditorRequest(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	body, err := configYAML(req.config)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"configYaml": string(body)})
}

// coerceBool reads loosely typed flags from form values and JSON.
func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	}
	return false
}
