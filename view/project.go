package view

import (
	"sort"

	"smartstay-cli/api"
)

type Status string

const (
	StatusAvailable     Status = "available"
	StatusOccupied      Status = "occupied"
	StatusJustAllocated Status = "just_allocated"
)

type RoomView struct {
	Number api.RoomNumber `json:"number"`
	Index  int            `json:"index"`
	Status Status         `json:"status"`
}

type FloorView struct {
	Floor int        `json:"floor"`
	Rooms []RoomView `json:"rooms"`
}

type HighlightSet map[api.RoomNumber]struct{}

func NewHighlightSet(rooms []api.Room) HighlightSet {
	set := make(HighlightSet, len(rooms))
	for _, room := range rooms {
		set[room.Number] = struct{}{}
	}
	return set
}

func (h HighlightSet) Has(number api.RoomNumber) bool {
	_, ok := h[number]
	return ok
}

func (h HighlightSet) Numbers() []api.RoomNumber {
	numbers := make([]api.RoomNumber, 0, len(h))
	for number := range h {
		numbers = append(numbers, number)
	}
	sort.Slice(numbers, func(i, j int) bool {
		return numbers[i] < numbers[j]
	})
	return numbers
}

// Classify picks the display status of a single room. A just-allocated
// room wins over its occupancy flag.
func Classify(room api.Room, highlight HighlightSet) Status {
	switch {
	case highlight.Has(room.Number):
		return StatusJustAllocated
	case room.IsOccupied:
		return StatusOccupied
	default:
		return StatusAvailable
	}
}

// Project buckets the inventory by floor. The result always has one bucket
// per floor, top floor first, each ordered by index. Rooms on floors outside
// 1..FloorCount are dropped.
func Project(inventory []api.Room, highlight HighlightSet) [api.FloorCount]FloorView {
	var buckets [api.FloorCount][]api.Room
	for _, room := range inventory {
		if room.Floor < 1 || room.Floor > api.FloorCount {
			continue
		}
		buckets[room.Floor-1] = append(buckets[room.Floor-1], room)
	}

	var floors [api.FloorCount]FloorView
	for i := range floors {
		floor := api.FloorCount - i
		rooms := buckets[floor-1]
		sort.SliceStable(rooms, func(a, b int) bool {
			return rooms[a].Index < rooms[b].Index
		})

		views := make([]RoomView, 0, len(rooms))
		for _, room := range rooms {
			views = append(views, RoomView{
				Number: room.Number,
				Index:  room.Index,
				Status: Classify(room, highlight),
			})
		}
		floors[i] = FloorView{Floor: floor, Rooms: views}
	}
	return floors
}

type Summary struct {
	Total         int `json:"total"`
	Available     int `json:"available"`
	Occupied      int `json:"occupied"`
	JustAllocated int `json:"just_allocated"`
}

func Summarize(floors [api.FloorCount]FloorView) Summary {
	summary := Summary{}
	for _, floor := range floors {
		for _, room := range floor.Rooms {
			summary.Total++
			switch room.Status {
			case StatusAvailable:
				summary.Available++
			case StatusOccupied:
				summary.Occupied++
			case StatusJustAllocated:
				summary.JustAllocated++
			}
		}
	}
	return summary
}
