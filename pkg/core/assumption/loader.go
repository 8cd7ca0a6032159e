package assumption

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	yaml "gopkg.in/yaml.v2"
)

// LoadFile reads an assumptions file, selecting the codec by extension:
// .yaml/.yml via yaml.v2, .hjson/.json via hjson. The loaded record is
// validated before being returned.
func LoadFile(path string) (*Assumptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assumptions: %w", err)
	}

	var a Assumptions
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".hjson", ".json":
		// hjson normalizes to plain JSON, then the json tags take over.
		var intermediate interface{}
		if err := hjson.Unmarshal(raw, &intermediate); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		jsonBytes, err := json.Marshal(intermediate)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", path, err)
		}
		if err := json.Unmarshal(jsonBytes, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported assumptions format %q", ext)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}
