// File: bindings.go
// Title: Variable Binding Files
// Description: Reads and writes variable bindings ({"P1": 42, "Q2": [1, 2]})
//              as JSON, YAML or TOML. Keys are case-insensitive and normalised
//              to their canonical address form; values become scalars or vectors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation based on the config format handling

package bindings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/foundation/kinematic/symbols"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// Format represents a binding file format
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
	FormatTOML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name as given on the command line
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return FormatAuto, mdwerror.Newf("unknown binding format %q", name).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("bindings.ParseFormat")
	}
}

// DetectFormat determines the binding format from the file extension
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// LoadFile reads a binding file, detecting the format from its extension
func LoadFile(path string) (map[string]value.Value, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		code := mdwerror.CodeInvalidInput
		if os.IsNotExist(err) {
			code = mdwerror.CodeNotFound
		}
		return nil, mdwerror.Wrap(err, "failed to read binding file").
			WithCode(code).
			WithOperation("bindings.LoadFile").
			WithDetail("path", path)
	}
	vars, err := Decode(content, DetectFormat(path))
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to load binding file").
			WithOperation("bindings.LoadFile").
			WithDetail("path", path)
	}
	return vars, nil
}

// SaveFile writes vars to path in the format matching its extension
func SaveFile(path string, vars map[string]value.Value) error {
	content, err := Encode(vars, DetectFormat(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return mdwerror.Wrap(err, "failed to write binding file").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("bindings.SaveFile").
			WithDetail("path", path)
	}
	return nil
}

// Decode parses content. FormatAuto tries JSON first, then YAML; TOML must be
// requested explicitly.
func Decode(content []byte, format Format) (map[string]value.Value, error) {
	if format == FormatAuto {
		format = FormatYAML
		if trimmed := bytes.TrimSpace(content); len(trimmed) > 0 && trimmed[0] == '{' {
			format = FormatJSON
		}
	}

	raw, err := parseContent(content, format)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// Normalize converts decoded data into canonical bindings
func Normalize(raw map[string]interface{}) (map[string]value.Value, error) {
	vars := make(map[string]value.Value, len(raw))
	for key, item := range raw {
		addr, err := symbols.ParseAddress(key)
		if err != nil {
			return nil, mdwerror.Wrap(err, "invalid variable name").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("bindings.Normalize").
				WithDetail("key", key)
		}
		v, err := value.FromInterface(item)
		if err != nil {
			return nil, mdwerror.Wrap(err, "invalid variable value").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("bindings.Normalize").
				WithDetail("key", key)
		}
		canonical := addr.Key()
		if _, dup := vars[canonical]; dup {
			return nil, mdwerror.Newf("variable %s bound more than once", canonical).
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("bindings.Normalize").
				WithDetail("key", key)
		}
		vars[canonical] = v
	}
	return vars, nil
}

// parseContent parses binding content based on format
func parseContent(content []byte, format Format) (map[string]interface{}, error) {
	data := make(map[string]interface{})

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, mdwerror.Wrap(err, "JSON parse error").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("bindings.parseContent")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, mdwerror.Wrap(err, "YAML parse error").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("bindings.parseContent")
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, mdwerror.Wrap(err, "TOML parse error").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("bindings.parseContent")
		}
	default:
		return nil, mdwerror.New(fmt.Sprintf("unsupported format: %s", format)).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("bindings.parseContent")
	}
	return data, nil
}

// Encode renders vars in the given format. FormatAuto encodes JSON.
func Encode(vars map[string]value.Value, format Format) ([]byte, error) {
	plain := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		plain[k] = v.Interface()
	}

	var buf bytes.Buffer
	switch format {
	case FormatAuto, FormatJSON:
		out, err := json.MarshalIndent(vars, "", "  ")
		if err != nil {
			return nil, mdwerror.Wrap(err, "JSON encode error").
				WithCode(mdwerror.CodeInternal).
				WithOperation("bindings.Encode")
		}
		buf.Write(out)
		buf.WriteByte('\n')
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return nil, mdwerror.Wrap(err, "YAML encode error").
				WithCode(mdwerror.CodeInternal).
				WithOperation("bindings.Encode")
		}
		_ = enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(plain); err != nil {
			return nil, mdwerror.Wrap(err, "TOML encode error").
				WithCode(mdwerror.CodeInternal).
				WithOperation("bindings.Encode")
		}
	default:
		return nil, mdwerror.New(fmt.Sprintf("unsupported format: %s", format)).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("bindings.Encode")
	}
	return buf.Bytes(), nil
}

// SortedKeys returns the keys of vars ordered by class (P, Q, I, M) and index
func SortedKeys(vars map[string]value.Value) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	rank := map[symbols.Class]int{symbols.ClassP: 0, symbols.ClassQ: 1, symbols.ClassI: 2, symbols.ClassM: 3}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := symbols.ParseAddress(keys[i])
		b, errB := symbols.ParseAddress(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		if a.Class != b.Class {
			return rank[a.Class] < rank[b.Class]
		}
		return a.Index < b.Index
	})
	return keys
}
