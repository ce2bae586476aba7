package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tantalor93/dnsrank/pkg/dnsbench"
	"gopkg.in/yaml.v3"
)

// Config maps the YAML configuration file, its values are used only for flags not set on the command line.
type Config struct {
	Domain      string   `yaml:"domain"`
	Attempts    *int     `yaml:"attempts"`
	File        string   `yaml:"file"`
	Servers     []string `yaml:"servers"`
	RateLimit   string   `yaml:"rate-limit"`
	Timeout     string   `yaml:"timeout"`
	Type        string   `yaml:"type"`
	Port        *uint16  `yaml:"port"`
	Recurse     *bool    `yaml:"recurse"`
	Edns0       *uint16  `yaml:"edns0"`
	Concurrency *int     `yaml:"concurrency"`
	QPS         *int     `yaml:"qps"`
	System      *bool    `yaml:"system"`
}

// LoadConfig loads and parses YAML configuration file from the path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// empty file is a valid configuration without any values
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return &cfg, nil
}

// apply copies configured values into the benchmark and the command line options, isSet reports flags
// given explicitly on the command line, those are never overridden.
func (c *Config) apply(b *dnsbench.Benchmark, o *options, isSet func(flag string) bool) error {
	if c.Domain != "" && !isSet("domain") {
		b.Domain = c.Domain
	}
	if c.Attempts != nil && !isSet("attempts") {
		b.Attempts = *c.Attempts
	}
	if c.File != "" && !isSet("file") {
		o.serversFile = c.File
	}
	o.servers = append(o.servers, c.Servers...)
	if c.RateLimit != "" && !isSet("rate-limit") {
		d, err := parseSeconds(c.RateLimit)
		if err != nil {
			return fmt.Errorf("invalid rate-limit in config: %w", err)
		}
		b.RateLimit = d
	}
	if c.Timeout != "" && !isSet("timeout") {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config: %w", err)
		}
		b.ProbeTimeout = d
	}
	if c.Type != "" && !isSet("type") {
		b.Type = c.Type
	}
	if c.Port != nil && !isSet("port") {
		o.port = *c.Port
	}
	if c.Recurse != nil && !isSet("recurse") {
		b.Recurse = *c.Recurse
	}
	if c.Edns0 != nil && !isSet("edns0") {
		b.Edns0 = *c.Edns0
	}
	if c.Concurrency != nil && !isSet("concurrency") {
		b.Concurrency = *c.Concurrency
	}
	if c.QPS != nil && !isSet("qps") {
		b.Rate = *c.QPS
	}
	if c.System != nil && !isSet("system") {
		o.system = *c.System
	}
	return nil
}
