package config

import (
	"os"

	"github.com/tidwall/gjson"

	"icrank/internal/errors"
)

// ParamKeys lists the JSON keys of a parameters file, matching the json tags of stats.Config
var ParamKeys = []string{
	"metric",
	"n_features",
	"ascending",
	"n_samplings",
	"confidence",
	"n_perms",
	"comparison_direction",
	"sort_reference",
	"reference_ascending",
	"seed",
	"workers",
}

// ReadParams reads a JSON parameters file and returns the known keys it sets,
// as strings ready for flag parsing. Unknown keys are ignored. Nested objects
// are reached with a prefix path such as "ranking".
func ReadParams(path, prefix string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.ConfigInvalid(path + " is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if prefix != "" {
		root = root.Get(prefix)
		if !root.IsObject() {
			return nil, errors.ConfigInvalid(path + ": " + prefix + " is not an object")
		}
	}

	params := make(map[string]string)
	for _, key := range ParamKeys {
		v := root.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.IsObject() || v.IsArray() {
			return nil, errors.ConfigInvalid(path + ": " + key + " must be a scalar")
		}
		params[key] = v.String()
	}
	return params, nil
}
