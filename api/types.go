package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	FloorCount   = 10
	MaxRooms     = 97
	MinBooking   = 1
	MaxBooking   = 5
	ScenarioSize = 4
)

// RoomNumber is the display number of a room (101, 1007, ...). The backend
// sends it as a JSON string; plain numbers are accepted too.
type RoomNumber int

func (n *RoomNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("room number %q: %w", raw, err)
		}
		*n = RoomNumber(parsed)
		return nil
	}
	var parsed int
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("room number %s: %w", string(data), err)
	}
	*n = RoomNumber(parsed)
	return nil
}

func (n RoomNumber) String() string {
	return strconv.Itoa(int(n))
}

type Room struct {
	Number     RoomNumber `json:"number"`
	Floor      int        `json:"floor"`
	Index      int        `json:"index"`
	IsOccupied bool       `json:"is_occupied"`
}

type StateResponse struct {
	Rooms []Room `json:"rooms"`
}

type BookingRequest struct {
	Size int `json:"size"`
}

type BookingResult struct {
	TravelTime  float64 `json:"travel_time"`
	BookedRooms []Room  `json:"booked_rooms"`
}

// RoomNumbers returns the booked room numbers in response order.
func (r BookingResult) RoomNumbers() []RoomNumber {
	numbers := make([]RoomNumber, 0, len(r.BookedRooms))
	for _, room := range r.BookedRooms {
		numbers = append(numbers, room.Number)
	}
	return numbers
}

// ValidateInventory checks the invariants every accepted inventory must hold.
func ValidateInventory(rooms []Room) error {
	if len(rooms) > MaxRooms {
		return fmt.Errorf("inventory has %d rooms, limit is %d", len(rooms), MaxRooms)
	}
	for _, room := range rooms {
		if room.Floor < 1 || room.Floor > FloorCount {
			return fmt.Errorf("room %s has floor %d outside 1..%d", room.Number, room.Floor, FloorCount)
		}
	}
	return nil
}
