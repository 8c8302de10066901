package linker

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	hoistfs "go.trai.ch/hoist/internal/adapters/fs"
)

// applyState is the resume marker written after every applied entry.
type applyState struct {
	Plan   string `json:"plan"`
	Index  int    `json:"index"`
	Target string `json:"target"`
}

// installedState records the targets of the last successful apply for pruning.
type installedState struct {
	Plan    string   `json:"plan"`
	Targets []string `json:"targets"`
}

// readState loads a JSON state file. A missing file yields nil.
func readState[T any](path string) (*T, error) {
	//nolint:gosec // Path is a state file inside the workspace internal directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func writeState(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return hoistfs.WriteFileAtomic(path, data)
}
