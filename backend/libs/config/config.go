// Package config loads skyscope service settings from a dotenv file, an optional YAML
// file and the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "CONFIG_FILE"
	dotenvPathEnv = "DOTENV_FILE"
	defaultDotenv = ".env"
	listSeparator = ","
)

// LoadConfig fills target, a pointer to a settings struct whose defaults are already set.
//
// A dotenv file (DOTENV_FILE, else ./.env when present) only adds variables that are not
// already exported. CONFIG_FILE names a YAML document decoded over the defaults. Finally each
// leaf field is read from the environment under its `env` tag, or under the upper-cased
// field path joined by underscores (HTTP.Port becomes HTTP_PORT). `env:"-"` skips a field.
func LoadConfig(target interface{}) error {
	root, err := settingsStruct(target)
	if err != nil {
		return err
	}
	if err := loadDotenv(); err != nil {
		return err
	}
	if path := os.Getenv(configPathEnv); path != "" {
		if err := decodeYAML(path, target); err != nil {
			return err
		}
	}
	return walkLeaves(root, "", func(key string, field reflect.Value) error {
		raw, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		if err := setFromString(field, raw); err != nil {
			return fmt.Errorf("config: %s=%q: %w", key, raw, err)
		}
		return nil
	})
}

func settingsStruct(target interface{}) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, errors.New("config: target is nil")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("config: target must be a non-nil struct pointer, got %T", target)
	}
	return v.Elem(), nil
}

func loadDotenv() error {
	path, explicit := os.LookupEnv(dotenvPathEnv)
	if path == "" {
		path, explicit = defaultDotenv, false
	}

	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("config: dotenv %s: %w", path, err)
	}
}

func decodeYAML(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: %s: decode yaml: %w", path, err)
	}
	return nil
}

// walkLeaves calls fn for every settable non-struct field with its environment key.
// Embedded structs share their parent's prefix.
func walkLeaves(v reflect.Value, prefix string, fn func(key string, field reflect.Value) error) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf, field := t.Field(i), v.Field(i)
		if !field.CanSet() {
			continue
		}

		tag := sf.Tag.Get("env")
		if tag == "-" {
			continue
		}

		var err error
		switch {
		case sf.Anonymous:
			err = walkLeaves(field, prefix, fn)
		case field.Kind() == reflect.Struct:
			err = walkLeaves(field, envKey(prefix, sf.Name, tag), fn)
		default:
			err = fn(envKey(prefix, sf.Name, tag), field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// envKey prefers an explicit tag, which is absolute rather than nested under prefix.
func envKey(prefix, name, tag string) string {
	if tag != "" {
		prefix, name = "", tag
	}
	name = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func setFromString(field reflect.Value, raw string) error {
	kind := field.Kind()
	switch {
	case kind == reflect.String:
		field.SetString(raw)
	case kind == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case field.CanUint():
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case field.CanFloat():
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case kind == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		items := SplitList(raw)
		list := reflect.MakeSlice(field.Type(), len(items), len(items))
		for i, item := range items {
			list.Index(i).SetString(item)
		}
		field.Set(list)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// SplitList splits a comma separated value, trimming blanks and dropping empty entries.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
