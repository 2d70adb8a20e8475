package configutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// ReadConfig reads a json5 config file along with an optional
// "<name>.local.<ext>" sibling whose non-zero values override the base
// file. Returns os.ErrNotExist when neither file exists; an empty file
// counts as absent.
func ReadConfig[T any](name string) (T, error) {
	var out T

	loaded, err := decodeFile(name, &out)
	if err != nil {
		return out, err
	}

	localName := localVariant(name)
	var local T
	overridden, err := decodeFile(localName, &local)
	if err != nil {
		return out, err
	}
	if overridden {
		if err := mergo.Merge(&out, local, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localName)
	}

	if !loaded && !overridden {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks from the working directory up toward the
// filesystem root until ReadConfig finds a matching file.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return zero, os.ErrNotExist
		}
		current = parent
	}
}

// localVariant turns "dir/app.json5" into "dir/app.local.json5".
func localVariant(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func decodeFile(name string, out any) (bool, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(data, out)
}
