package export

import (
	"sort"

	"github.com/classmanager/backend/internal/timetable"
)

// Column order of timetable exports.
var timetableHeaders = []string{"Day", "Start", "End", "Group", "Discipline", "Teacher", "Classroom"}

// TimetableRow is one placed lesson in a course timetable export.
type TimetableRow struct {
	Day        string
	Start      string
	End        string
	Group      string
	Discipline string
	Teacher    string
	Classroom  string
}

// TimetableDataset assembles the export dataset for a course timetable.
// Rows are ordered the way the grid renders: Monday first, then by start
// time and group name within a day.
func TimetableDataset(rows []TimetableRow) Dataset {
	sorted := make([]TimetableRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Day != b.Day {
			return timetable.DayIndex(a.Day) < timetable.DayIndex(b.Day)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Group < b.Group
	})

	dataset := Dataset{
		Headers: timetableHeaders,
		Rows:    make([]map[string]string, 0, len(sorted)),
	}
	for _, row := range sorted {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":        row.Day,
			"Start":      row.Start,
			"End":        row.End,
			"Group":      row.Group,
			"Discipline": row.Discipline,
			"Teacher":    row.Teacher,
			"Classroom":  row.Classroom,
		})
	}
	return dataset
}
