package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override job settings.
const (
	EnvSeparator   = "VARIANTGEN_ID_SEPARATOR"
	EnvPrecedence  = "VARIANTGEN_PRECEDENCE"
	EnvMaxVariants = "VARIANTGEN_MAX_VARIANTS"
)

// Format selects the job file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension; anything that is
// not .yaml/.yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads a job file and applies environment overrides.
func Load(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	j, err := Decode(f, FormatForPath(path))
	if err != nil {
		return Job{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := j.applyEnvOverrides(); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Decode reads a job in the given format. Unknown JSON fields are rejected
// so typos surface early.
func Decode(r io.Reader, format Format) (Job, error) {
	var j Job
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&j); err != nil && err != io.EOF {
			return Job{}, err
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&j); err != nil && err != io.EOF {
			return Job{}, err
		}
	}
	if j.Parser.Options == nil {
		j.Parser.Options = Options{}
	}
	return j, nil
}

// applyEnvOverrides lets the environment override generator settings.
func (j *Job) applyEnvOverrides() error {
	if v, ok := os.LookupEnv(EnvSeparator); ok {
		sep := v
		j.Generator.IDSeparator = &sep
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrecedence)); v != "" {
		j.Generator.Precedence = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxVariants)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxVariants, err)
		}
		j.Generator.MaxVariants = &n
	}
	return nil
}
