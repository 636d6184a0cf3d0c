package mcpserver

import (
	"encoding/json"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	manifestName   = "io.github.panbanda/chainlint"
	repositoryURL  = "https://github.com/panbanda/chainlint"
	imageName      = "ghcr.io/panbanda/chainlint"
)

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes one way of launching the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	Version          string     `json:"version,omitempty"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

type Argument struct {
	Type        string `json:"type"`
	Value       string `json:"value,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders server.json for the given release version.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	args := []Argument{
		{Type: "positional", Value: "mcp"},
		{
			Type:        "named",
			Name:        "--config",
			Description: "Path to a chainlint.toml, .yaml or .json file",
		},
	}

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        manifestName,
		Description: "Middleware analysis for TypeScript and JavaScript: duplicated guards, unsafe chain ordering and legacy helpers",
		Version:     version,
		Repository: &Repository{
			URL:    repositoryURL,
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType:     "oci",
				Identifier:       imageName + ":" + version,
				PackageArguments: args,
				Transport:        Transport{Type: "stdio"},
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
