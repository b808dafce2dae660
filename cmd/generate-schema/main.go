package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/mkitti/fileglancer/pkg/config"
)

func main() {
	// Generate JSON schema from Config struct
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true, // Inline all definitions for simplicity
	}

	schema := reflector.Reflect(&config.Config{})

	schema.Title = "Fileglancer Configuration"
	schema.Description = "Configuration schema for the fileglancer CLI and monitor"
	schema.Version = "1.0.0"

	// Durations are written as Go duration strings ("30s", "1h")
	for _, section := range []string{"central", "metrics"} {
		props, ok := schema.Properties.Get(section)
		if !ok {
			continue
		}
		for pair := props.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.Type == "integer" && isDurationKey(pair.Key) {
				pair.Value.Type = "string"
				pair.Value.Pattern = `^-?([0-9]+(\.[0-9]*)?(ns|us|µs|ms|s|m|h))+$`
			}
		}
	}

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling schema: %v\n", err)
		os.Exit(1)
	}

	outputFile := "config.schema.json"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if err := os.WriteFile(outputFile, schemaJSON, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("JSON schema written to %s\n", outputFile)
}

func isDurationKey(key string) bool {
	switch key {
	case "timeout", "share_paths_ttl", "proxied_paths_ttl", "probe_interval":
		return true
	}
	return false
}
