package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartstay-cli/api"
	"smartstay-cli/control"
	"smartstay-cli/state"
	"smartstay-cli/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRooms() []api.Room {
	rooms := []api.Room{}
	for floor := 1; floor <= 2; floor++ {
		for i := 0; i < 3; i++ {
			rooms = append(rooms, api.Room{Number: api.RoomNumber(floor*100 + i + 1), Floor: floor, Index: i})
		}
	}
	return rooms
}

// newBackend serves a six room hotel whose bookings take the first rooms
// and which refuses blocks larger than four.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	rooms := testRooms()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/state":
			_ = json.NewEncoder(w).Encode(api.StateResponse{Rooms: rooms})
		case "/book":
			var req api.BookingRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Size > 4 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"detail":"No contiguous block available"}`))
				return
			}
			booked := make([]api.Room, req.Size)
			copy(booked, rooms[:req.Size])
			for i := range rooms[:req.Size] {
				rooms[i].IsOccupied = true
			}
			_ = json.NewEncoder(w).Encode(api.BookingResult{TravelTime: float64(req.Size - 1), BookedRooms: booked})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestController(t *testing.T, baseURL string) *control.Controller {
	t.Helper()
	backend := api.NewClient()
	backend.BaseURL = baseURL
	store := state.NewStore(state.Initial(nil, time.Time{}, 1))
	return control.New(backend, store, zap.NewNop())
}

func TestConsoleLineMode(t *testing.T) {
	srv := newBackend(t)
	controller := newTestController(t, srv.URL)

	var out bytes.Buffer
	c := newConsole(controller, &out, false, false)
	require.NoError(t, c.run(context.Background(), strings.NewReader("+\n+\nb\nq\n")))

	snap := controller.Snapshot()
	assert.Equal(t, state.PhaseSucceeded, snap.Phase)
	assert.Equal(t, 3, snap.RequestedSize)
	assert.False(t, snap.Loading)

	text := out.String()
	assert.Contains(t, text, "Rooms: [ 3 ]")
	assert.Contains(t, text, "Allocation Successful: 2 min travel time")
	assert.Contains(t, text, "Assigned Rooms: 101, 102, 103")
	assert.Contains(t, text, "Floor 01 | *101 *102 *103")
	assert.Contains(t, text, consoleHelp)
}

func TestConsoleLineModeShowsError(t *testing.T) {
	srv := newBackend(t)
	controller := newTestController(t, srv.URL)

	var out bytes.Buffer
	c := newConsole(controller, &out, false, false)
	require.NoError(t, c.run(context.Background(), strings.NewReader("++++++b")))

	assert.Equal(t, 5, controller.Snapshot().RequestedSize)
	assert.Contains(t, out.String(), "Allocation Error: No contiguous block available")

	c = newConsole(controller, &out, false, false)
	require.NoError(t, c.run(context.Background(), strings.NewReader("c\n")))
	snap := controller.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, state.PhaseIdle, snap.Phase)
}

func TestConsoleOfflineBackend(t *testing.T) {
	srv := newBackend(t)
	srv.Close()
	controller := newTestController(t, srv.URL)

	var out bytes.Buffer
	c := newConsole(controller, &out, false, false)
	require.NoError(t, c.run(context.Background(), strings.NewReader("")))

	assert.True(t, controller.Snapshot().Offline)
	assert.Contains(t, out.String(), "Allocation Error: System Offline. Please restart backend service.")
	assert.Contains(t, out.String(), "no cached room map")
}

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := crlfWriter{w: &buf}.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())
}

func TestParseScenario(t *testing.T) {
	scenario, err := parseScenario("1")
	require.NoError(t, err)
	assert.Equal(t, api.ScenarioOptimization, scenario.Name)

	scenario, err = parseScenario(" RECRUITER_2 ")
	require.NoError(t, err)
	assert.Equal(t, 2, scenario.ID)

	_, err = parseScenario("3")
	assert.Error(t, err)
}

func TestHistoryEntry(t *testing.T) {
	at := time.Date(2026, 10, 18, 11, 0, 0, 5000, time.FixedZone("CEST", 2*60*60))
	entry := historyEntry(control.Allocation{
		Action:   state.ActionScenario,
		Scenario: api.ScenarioConstraint,
		Size:     4,
		Result: api.BookingResult{
			TravelTime:  3,
			BookedRooms: []api.Room{{Number: 201}, {Number: 202}, {Number: 203}, {Number: 204}},
		},
		At: at,
	}, "http://localhost:8000")

	_, err := uuid.Parse(entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, storage.Allocation{
		ID:         entry.ID,
		Kind:       "scenario",
		Scenario:   "recruiter_2",
		Size:       4,
		TravelTime: 3,
		Rooms:      "201,202,203,204",
		APIURL:     "http://localhost:8000",
		BookedAt:   "2026-10-18T09:00:00.000005000Z",
	}, entry)
}

func TestComputeHistoryStats(t *testing.T) {
	stats := computeHistoryStats([]storage.Allocation{
		{Kind: "book", Size: 2, TravelTime: 1, Rooms: "101,102", BookedAt: "2026-10-18T09:00:00Z"},
		{Kind: "scenario", Scenario: "recruiter_1", Size: 4, TravelTime: 9, Rooms: "101,102,105,106", BookedAt: "2026-10-18T10:00:00Z"},
		{Kind: "book", Size: 2, TravelTime: 2, Rooms: "103,104", BookedAt: "2026-10-17T09:00:00Z"},
	})

	assert.Equal(t, 3, stats.TotalAllocations)
	assert.Equal(t, 8, stats.TotalRooms)
	assert.Equal(t, map[string]int{"book": 2, "scenario:recruiter_1": 1}, stats.ByKind)
	assert.Equal(t, 4.0, stats.AverageTravel)
	assert.Equal(t, 1.0, stats.BestTravel)
	assert.Equal(t, 2, stats.UsualSize)
	assert.Equal(t, "2026-10-18T10:00:00Z", stats.LastAllocation)
}

func TestSnapshotReport(t *testing.T) {
	snap := state.Initial(testRooms(), time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), 2)
	snap.Err = errors.New("Allocation Failed")

	report := newSnapshotReport(snap)
	assert.Equal(t, "idle", report.Phase)
	assert.Equal(t, "Allocation Failed", report.Error)
	assert.Equal(t, "2026-10-18T09:00:00Z", report.RefreshedAt)
	assert.Equal(t, 6, report.Summary.Total)
	assert.Empty(t, report.Highlight)
	assert.Equal(t, 10, report.Floors[0].Floor)
	assert.Len(t, report.Floors[9].Rooms, 3)

	var buf bytes.Buffer
	require.NoError(t, writeJSONTo(&buf, report))
	assert.Contains(t, buf.String(), `"error": "Allocation Failed"`)
}
