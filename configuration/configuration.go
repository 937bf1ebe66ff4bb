// Package configuration defines the configuration of the demo binary.
package configuration

import (
	"fmt"
	"io"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Configuration is the demo configuration, intended to be provided as a
// yaml file.
type Configuration struct {
	// Log supports setting various parameters related to the logging
	// subsystem.
	Log struct {
		// Level is the granularity at which the demo logs.
		Level Loglevel `yaml:"level"`

		// Formatter overrides the default formatter with another. Options
		// include "text" and "json".
		Formatter string `yaml:"formatter,omitempty"`
	} `yaml:"log"`

	// Demo configures the scripted edit exchange.
	Demo struct {
		// Authors are the replica ids taking part. Author 0 is reserved
		// and rejected.
		Authors []uint16 `yaml:"authors,omitempty"`

		// Edits is the number of random edits each replica performs
		// before the exchange.
		Edits int `yaml:"edits,omitempty"`

		// Seed makes the random edit script reproducible.
		Seed int64 `yaml:"seed,omitempty"`

		// Text seeds every replica's document.
		Text string `yaml:"text,omitempty"`
	} `yaml:"demo"`
}

// Loglevel is the level at which operations are logged. This can be
// error, warn, info, or debug.
type Loglevel string

// UnmarshalYAML implements the yaml.Umarshaler interface. Unmarshals a
// string into a Loglevel, validating that it represents a valid loglevel.
// The match is case-sensitive: only the lowercase names are accepted.
func (loglevel *Loglevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var strLoglevel string
	if err := unmarshal(&strLoglevel); err != nil {
		return err
	}

	switch strLoglevel {
	case "error", "warn", "info", "debug":
		*loglevel = Loglevel(strLoglevel)
	default:
		return fmt.Errorf("invalid loglevel %s Must be one of [error, warn, info, debug]", strLoglevel)
	}

	return nil
}

// Parse parses an input configuration yaml document into a Configuration
// struct. Environment variables are not consulted; the file stands alone.
func Parse(rd io.Reader) (*Configuration, error) {
	in, err := ioutil.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	config := &Configuration{}
	config.Log.Level = "info"

	if err := yaml.Unmarshal(in, config); err != nil {
		return nil, err
	}

	for _, author := range config.Demo.Authors {
		if author == 0 {
			return nil, fmt.Errorf("author 0 is reserved for the origin span")
		}
	}

	return config, nil
}
