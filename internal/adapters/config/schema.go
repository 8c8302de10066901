package config

import (
	"bytes"
	"encoding/json"
)

// Workfile represents the structure of the hoist.work.yaml configuration file.
type Workfile struct {
	Packages []string `yaml:"packages"`
}

// PnpmWorkspace represents the packages list of a pnpm-workspace.yaml file.
type PnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// PackageJSON is the subset of package.json that discovery reads.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Workspaces      *Workspaces       `json:"workspaces"`
}

// Workspaces accepts both the npm array form and the yarn {"packages": [...]} form.
type Workspaces struct {
	Packages []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return json.Unmarshal(data, &w.Packages)
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	w.Packages = obj.Packages
	return nil
}
