package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/msto63/kinematics/foundation/kinematic/bindings"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// readProgram reads program lines from path; "-" reads stdin
func readProgram(path string, stdin io.Reader) ([]string, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("Programm nicht lesbar: %w", err)
	}
	return kinematic.SplitLines(string(content)), nil
}

// loadVariables merges a binding file and --set assignments; assignments win
func loadVariables(file string, sets []string) (map[string]value.Value, error) {
	vars := make(map[string]value.Value)
	if file != "" {
		loaded, err := bindings.LoadFile(file)
		if err != nil {
			return nil, err
		}
		for k, v := range loaded {
			vars[k] = v
		}
	}

	if len(sets) == 0 {
		return vars, nil
	}
	raw := make(map[string]interface{}, len(sets))
	for _, s := range sets {
		key, val, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		raw[key] = val
	}
	assigned, err := bindings.Normalize(raw)
	if err != nil {
		return nil, err
	}
	for k, v := range assigned {
		vars[k] = v
	}
	return vars, nil
}

// parseAssignment splits "P1=3" into key and value. A comma separated value
// such as "Q2=1,2,3" becomes a vector.
func parseAssignment(s string) (string, interface{}, error) {
	key, val, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)
	if !ok || key == "" || val == "" {
		return "", nil, fmt.Errorf("ungültige Zuweisung %q (erwartet z.B. P1=3 oder Q2=1,2,3)", s)
	}
	if !strings.Contains(val, ",") {
		return key, val, nil
	}
	parts := strings.Split(val, ",")
	elems := make([]interface{}, len(parts))
	for i, p := range parts {
		elems[i] = strings.TrimSpace(p)
	}
	return key, elems, nil
}
