package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"smartstay-cli/state"
	"smartstay-cli/storage"

	"github.com/spf13/cobra"
)

type HistoryStats struct {
	TotalAllocations int            `json:"total_allocations"`
	TotalRooms       int            `json:"total_rooms"`
	ByKind           map[string]int `json:"by_kind"`
	AverageTravel    float64        `json:"average_travel_time"`
	BestTravel       float64        `json:"best_travel_time"`
	UsualSize        int            `json:"usual_size"`
	LastAllocation   string         `json:"last_allocation"`
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage local allocation history",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyStatsCmd())
	cmd.AddCommand(historyRemoveCmd())
	cmd.AddCommand(historyClearCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var kind string
	var since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded allocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.AllocationFilter{Limit: limit}

			if kind != "" {
				switch state.Action(kind) {
				case state.ActionBook, state.ActionScenario:
					filter.Kind = kind
				default:
					return fmt.Errorf("--kind must be %s or %s", state.ActionBook, state.ActionScenario)
				}
			}
			if since != "" {
				parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", since)
				}
				filter.Since = storage.FormatTimestamp(parsed)
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			db, err := storage.OpenHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			allocations, err := storage.ListAllocations(db, filter)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(allocations)
			}

			if len(allocations) == 0 {
				fmt.Println("No allocations found.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tWHEN\tKIND\tSIZE\tTRAVEL\tROOMS")
			}
			for _, allocation := range allocations {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%g\t%s\n",
					allocation.ID,
					localTimestamp(allocation.BookedAt),
					kindLabel(allocation),
					allocation.Size,
					allocation.TravelTime,
					strings.ReplaceAll(allocation.Rooms, ",", ", "),
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list allocations of this kind (book, scenario)")
	cmd.Flags().StringVar(&since, "since", "", "Only list allocations on/after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of allocations")
	return cmd
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show allocation stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.OpenHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			allocations, err := storage.ListAllocations(db, storage.AllocationFilter{})
			if err != nil {
				return err
			}
			if len(allocations) == 0 {
				fmt.Println("No allocations found.")
				return nil
			}

			stats := computeHistoryStats(allocations)
			if outputJSON {
				return writeJSON(stats)
			}

			kinds := make([]string, 0, len(stats.ByKind))
			for kind, count := range stats.ByKind {
				kinds = append(kinds, fmt.Sprintf("%s %d", kind, count))
			}
			sort.Strings(kinds)

			fmt.Printf("Total allocations: %d (%s)\n", stats.TotalAllocations, strings.Join(kinds, ", "))
			fmt.Printf("Total rooms: %d\n", stats.TotalRooms)
			fmt.Printf("Usual size: %d\n", stats.UsualSize)
			fmt.Printf("Average travel time: %.1f min\n", stats.AverageTravel)
			fmt.Printf("Best travel time: %g min\n", stats.BestTravel)
			fmt.Printf("Last allocation: %s\n", localTimestamp(stats.LastAllocation))
			return nil
		},
	}
}

func historyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an allocation from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			db, err := storage.OpenHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := storage.RemoveAllocation(db, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("allocation %q not found", id)
			}

			fmt.Printf("Removed allocation %s.\n", id)
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every allocation from history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.OpenHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := storage.ClearAllocations(db)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(map[string]int64{"removed": removed})
			}
			fmt.Printf("Removed %d allocations.\n", removed)
			return nil
		},
	}
}

func computeHistoryStats(allocations []storage.Allocation) HistoryStats {
	stats := HistoryStats{
		TotalAllocations: len(allocations),
		ByKind:           map[string]int{},
		LastAllocation:   "N/A",
	}

	sizeCounts := map[int]int{}
	travelTotal := 0.0
	for i, allocation := range allocations {
		stats.ByKind[kindLabel(allocation)]++
		stats.TotalRooms += roomCount(allocation.Rooms)
		sizeCounts[allocation.Size]++
		travelTotal += allocation.TravelTime
		if i == 0 || allocation.TravelTime < stats.BestTravel {
			stats.BestTravel = allocation.TravelTime
		}
		if stats.LastAllocation == "N/A" || allocation.BookedAt > stats.LastAllocation {
			stats.LastAllocation = allocation.BookedAt
		}
	}
	if len(allocations) > 0 {
		stats.AverageTravel = travelTotal / float64(len(allocations))
	}
	stats.UsualSize = mostCommonSize(sizeCounts)
	return stats
}

// mostCommonSize breaks ties toward the smaller size.
func mostCommonSize(counts map[int]int) int {
	sizes := make([]int, 0, len(counts))
	for size := range counts {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	best := 0
	for _, size := range sizes {
		if best == 0 || counts[size] > counts[best] {
			best = size
		}
	}
	return best
}

func kindLabel(allocation storage.Allocation) string {
	if allocation.Scenario != "" {
		return allocation.Kind + ":" + allocation.Scenario
	}
	return allocation.Kind
}

func roomCount(rooms string) int {
	if strings.TrimSpace(rooms) == "" {
		return 0
	}
	return len(strings.Split(rooms, ","))
}

func localTimestamp(value string) string {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04")
}
