package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configHeader = `# Fileglancer Configuration File
#
# Values can be overridden with FILEGLANCER_* environment variables,
# e.g. FILEGLANCER_CENTRAL_URL or FILEGLANCER_LOGGING_LEVEL.
`

// InitConfig writes a default configuration file to the default location.
//
// Returns the path of the written file. Fails if a file already exists there
// unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML with a comment above each key.
func generateYAMLWithComments(cfg *Config) (string, error) {
	root := mapping(
		section("logging", "Logging output",
			scalar("level", cfg.Logging.Level, "Minimum level: DEBUG, INFO, WARN, ERROR"),
			scalar("format", cfg.Logging.Format, "Output format: text or json"),
			scalar("output", cfg.Logging.Output, "stdout, stderr, or a file path"),
		),
		section("central", "Central server. Leave url empty to serve filestore.root_dir as a single local share.",
			scalar("url", cfg.Central.URL, "Base URL, e.g. https://central.example.org/api"),
			duration("timeout", cfg.Central.Timeout, "Per-request timeout"),
			duration("share_paths_ttl", cfg.Central.SharePathsTTL, "How long the file share path list is cached"),
			duration("proxied_paths_ttl", cfg.Central.ProxiedPathsTTL, "How long each user's proxied paths are cached"),
			plain("rate_limit", strconv.FormatUint(uint64(cfg.Central.RateLimit), 10), "Requests per second to the central server (0 = unlimited)"),
			plain("rate_burst", strconv.FormatUint(uint64(cfg.Central.RateBurst), 10), "Burst size when rate_limit is set"),
		),
		section("filestore", "Sandboxed file access",
			scalar("root_dir", cfg.Filestore.RootDir, "Root of the local share (local mode only)"),
			plain("chunk_size", strconv.Itoa(cfg.Filestore.ChunkSize), "Streaming read chunk size in bytes"),
		),
		section("metrics", "Prometheus metrics and health endpoint",
			plain("enabled", strconv.FormatBool(cfg.Metrics.Enabled), ""),
			scalar("host", cfg.Metrics.Host, "Listen address (empty = all interfaces)"),
			plain("port", strconv.Itoa(cfg.Metrics.Port), ""),
			duration("probe_interval", cfg.Metrics.ProbeInterval, "How often the monitor command checks share mounts"),
		),
	)

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return configHeader + "\n" + string(out), nil
}

// pair is one key/value entry of a YAML mapping.
type pair struct {
	key, value *yaml.Node
}

func mapping(pairs ...pair) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range pairs {
		n.Content = append(n.Content, p.key, p.value)
	}
	return n
}

func section(name, comment string, pairs ...pair) pair {
	return pair{
		key:   key(name, comment),
		value: mapping(pairs...),
	}
}

func key(name, comment string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: name}
	if comment != "" {
		n.HeadComment = "# " + comment
	}
	return n
}

// scalar emits a string value; the !!str tag makes the encoder quote values
// such as "" or "~" that would otherwise read back as null.
func scalar(name, value, comment string) pair {
	return pair{
		key:   key(name, comment),
		value: &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	}
}

// plain emits an untagged value (numbers, booleans).
func plain(name, value, comment string) pair {
	return pair{
		key:   key(name, comment),
		value: &yaml.Node{Kind: yaml.ScalarNode, Value: value},
	}
}

func duration(name string, d time.Duration, comment string) pair {
	return scalar(name, d.String(), comment)
}
