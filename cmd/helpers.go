package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"smartstay-cli/api"
	"smartstay-cli/control"
	"smartstay-cli/state"
	"smartstay-cli/storage"
	"smartstay-cli/view"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func writeJSON(v any) error {
	return writeJSONTo(os.Stdout, v)
}

func writeJSONTo(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type historyRecorder struct {
	db     *sql.DB
	apiURL string
}

func (r historyRecorder) RecordAllocation(ctx context.Context, allocation control.Allocation) error {
	return storage.AddAllocation(r.db, historyEntry(allocation, r.apiURL))
}

func historyEntry(allocation control.Allocation, apiURL string) storage.Allocation {
	return storage.Allocation{
		ID:         uuid.NewString(),
		Kind:       string(allocation.Action),
		Scenario:   allocation.Scenario,
		Size:       allocation.Size,
		TravelTime: allocation.Result.TravelTime,
		Rooms:      joinRooms(allocation.Result.RoomNumbers(), ","),
		APIURL:     apiURL,
		BookedAt:   storage.FormatTimestamp(allocation.At),
	}
}

type inventoryCache struct{}

func (inventoryCache) SaveInventory(rooms []api.Room, at time.Time) error {
	return storage.SaveInventory(rooms, at)
}

// newController wires the backend client, the cached inventory and the
// history database into a controller. The returned func releases the
// history database.
func newController() (*control.Controller, func()) {
	rooms, refreshedAt, err := storage.LoadInventory()
	if err != nil {
		logger.Warn("ignoring inventory cache", zap.Error(err))
		rooms, refreshedAt = nil, time.Time{}
	}
	store := state.NewStore(state.Initial(rooms, refreshedAt, cfg.DefaultSize))

	opts := []control.Option{control.WithInventoryCache(inventoryCache{})}
	closeFn := func() {}
	if cfg.History {
		db, err := storage.OpenHistoryDB()
		if err != nil {
			logger.Warn("allocation history disabled", zap.Error(err))
		} else {
			opts = append(opts, control.WithRecorder(historyRecorder{db: db, apiURL: client.BaseURL}))
			closeFn = func() { _ = db.Close() }
		}
	}

	return control.New(client, store, logger.Named("control"), opts...), closeFn
}

type snapshotReport struct {
	Phase         string                         `json:"phase"`
	Action        string                         `json:"action,omitempty"`
	RequestedSize int                            `json:"requested_size"`
	Error         string                         `json:"error,omitempty"`
	Warning       string                         `json:"warning,omitempty"`
	Result        *api.BookingResult             `json:"result,omitempty"`
	Highlight     []api.RoomNumber               `json:"highlight"`
	Offline       bool                           `json:"offline"`
	RefreshedAt   string                         `json:"refreshed_at,omitempty"`
	Summary       view.Summary                   `json:"summary"`
	Floors        [api.FloorCount]view.FloorView `json:"floors"`
}

func newSnapshotReport(snap state.Snapshot) snapshotReport {
	floors := snap.Floors()
	report := snapshotReport{
		Phase:         string(snap.Phase),
		Action:        string(snap.Action),
		RequestedSize: snap.RequestedSize,
		Error:         snap.ErrorMessage(),
		Warning:       snap.Warning,
		Result:        snap.LastResult,
		Highlight:     snap.Highlight.Numbers(),
		Offline:       snap.Offline,
		Summary:       view.Summarize(floors),
		Floors:        floors,
	}
	if !snap.RefreshedAt.IsZero() {
		report.RefreshedAt = snap.RefreshedAt.UTC().Format(time.RFC3339)
	}
	return report
}

func printSnapshot(w io.Writer, snap state.Snapshot, color bool) error {
	if outputJSON {
		return writeJSONTo(w, newSnapshotReport(snap))
	}
	if err := view.Render(w, snap.Floors(), view.RenderOptions{Color: color, Compact: outputCompact}); err != nil {
		return err
	}
	printStatus(w, snap)
	return nil
}

// printStatus writes the notification panel: the error or the last
// allocation, plus any warning.
func printStatus(w io.Writer, snap state.Snapshot) {
	if snap.Err != nil {
		fmt.Fprintf(w, "Allocation Error: %s\n", snap.Err.Error())
	}
	if result := snap.LastResult; result != nil {
		fmt.Fprintf(w, "Allocation Successful: %g min travel time\n", result.TravelTime)
		fmt.Fprintf(w, "Assigned Rooms: %s\n", joinRooms(result.RoomNumbers(), ", "))
	}
	if snap.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", snap.Warning)
	}
	if snap.Offline && !outputCompact {
		if snap.RefreshedAt.IsZero() {
			fmt.Fprintln(w, "Backend unreachable; no cached room map.")
		} else {
			fmt.Fprintf(w, "Showing room map from %s.\n", snap.RefreshedAt.Local().Format("2006-01-02 15:04:05"))
		}
	}
}

// finish prints the settled snapshot and turns an error into a non-zero
// exit without printing it twice.
func finish(cmd *cobra.Command, snap state.Snapshot) error {
	if err := printSnapshot(cmd.OutOrStdout(), snap, view.ColorEnabled(os.Stdout)); err != nil {
		return err
	}
	if snap.Err != nil {
		cmd.SilenceErrors = true
		return snap.Err
	}
	return nil
}

func joinRooms(numbers []api.RoomNumber, sep string) string {
	parts := make([]string, 0, len(numbers))
	for _, number := range numbers {
		parts = append(parts, number.String())
	}
	return strings.Join(parts, sep)
}
