package timetable

import "github.com/classmanager/backend/internal/models"

// CellKey identifies one grid cell as "DAY|HH:MM-HH:MM". Entries are matched
// to cells by this key, mirroring the droppable ids of the grid view.
func CellKey(day, slotLabel string) string {
	return day + "|" + slotLabel
}

// Grid is the projection of schedule entries onto (day, slot) cells.
type Grid struct {
	Days  []string
	Slots []Slot
	cells map[string][]models.ScheduleEntry
}

// BuildGrid projects entries onto the configured days and derived slots.
// Every entry lands only in the cell whose day and formatted time range match
// exactly. A cell holds a list: co-located entries should not occur under the
// server's uniqueness rules, but the projection renders all matches rather
// than dropping any.
func BuildGrid(days []string, slots []Slot, entries []models.ScheduleEntry) Grid {
	grid := Grid{
		Days:  SortDays(days),
		Slots: slots,
		cells: make(map[string][]models.ScheduleEntry, len(days)*len(slots)),
	}
	for _, entry := range entries {
		key := CellKey(entry.DayOfWeek, FormatRange(entry.StartTime, entry.EndTime))
		grid.cells[key] = append(grid.cells[key], entry)
	}
	return grid
}

// Cell returns the entries occupying the given (day, slot) cell.
func (g Grid) Cell(day, slotLabel string) []models.ScheduleEntry {
	return g.cells[CellKey(day, slotLabel)]
}

// Occupied reports whether any entry occupies the given cell.
func (g Grid) Occupied(day, slotLabel string) bool {
	return len(g.cells[CellKey(day, slotLabel)]) > 0
}
