package configutil

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/titanous/json5"
)

type decodeFunc = func(data []byte, out any) error

func decoderFor(ext string) decodeFunc {
	switch strings.ToLower(ext) {
	case "yaml", "yml":
		return func(data []byte, out any) error {
			return yaml.Unmarshal(data, out)
		}
	default:
		return json5.Unmarshal
	}
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	if ext == "" {
		return f, ""
	}
	return strings.TrimSuffix(f, ext), ext[1:]
}

// layers returns the files making up a config, lowest priority first.
func layers(name string) []string {
	prefix, ext := splitExt(name)
	local := prefix + ".local"
	if ext != "" {
		local += "." + ext
	}
	return []string{name, local}
}

// ReadConfig reads `name` and overlays `<name>.local.<ext>` on top of it,
// fields set in the local file win. The extension picks the format, .yaml and
// .yml are yaml and anything else is json5.
//
// os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	_, ext := splitExt(name)
	decode := decoderFor(ext)

	found := false
	for i, path := range layers(name) {
		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return out, err
		}
		found = true
		if len(content) == 0 {
			continue
		}

		var layer T
		err = decode(content, &layer)
		if err != nil {
			return out, &DecodeError{Path: path, Err: err}
		}
		err = mergo.Merge(&out, layer, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		if i > 0 {
			slog.Info("merged local config overrides", "path", path)
		}
	}
	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// DecodeError is a config file that exists but could not be parsed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReadRecursively looks for `name` in the working directory and then in each
// parent directory, the first directory holding it wins.
func ReadRecursively[T any](name string) (T, error) {
	var zero T
	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return zero, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
