package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"smartstay-cli/api"
)

// InventoryFile is the last inventory fetched from the backend.
type InventoryFile struct {
	SavedAt string     `json:"saved_at"`
	Rooms   []api.Room `json:"rooms"`
}

// LoadInventory returns the cached inventory. A missing cache is not an
// error; it yields no rooms and a zero time.
func LoadInventory() ([]api.Room, time.Time, error) {
	path, err := InventoryPath()
	if err != nil {
		return nil, time.Time{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, err
	}
	if info.IsDir() {
		return nil, time.Time{}, fmt.Errorf("inventory path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer file.Close()

	var payload InventoryFile
	if err := json.NewDecoder(file).Decode(&payload); err != nil {
		return nil, time.Time{}, err
	}
	if err := api.ValidateInventory(payload.Rooms); err != nil {
		return nil, time.Time{}, fmt.Errorf("cached inventory: %w", err)
	}

	var savedAt time.Time
	if payload.SavedAt != "" {
		savedAt, err = time.Parse(time.RFC3339, payload.SavedAt)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("cached inventory time: %w", err)
		}
	}
	return payload.Rooms, savedAt, nil
}

func SaveInventory(rooms []api.Room, at time.Time) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := InventoryPath()
	if err != nil {
		return err
	}

	sorted := make([]api.Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Floor != sorted[j].Floor {
			return sorted[i].Floor < sorted[j].Floor
		}
		return sorted[i].Index < sorted[j].Index
	})

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(InventoryFile{SavedAt: at.UTC().Format(time.RFC3339), Rooms: sorted}); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
