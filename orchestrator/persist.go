package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func mkSessionDir(outputsRoot string, res *Result) (string, error) {
	sid := "session_" + res.CreatedAt.Format("20060102")
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func persist(outputsRoot string, res *Result) (string, error) {
	dir, err := mkSessionDir(outputsRoot, res)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, res.ID+".json")
	if err := writeJSON(path, res); err != nil {
		return "", err
	}
	return path, nil
}
