package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimetableDatasetOrdersRowsLikeTheGrid(t *testing.T) {
	dataset := TimetableDataset([]TimetableRow{
		{Day: "WEDNESDAY", Start: "08:00:00", End: "09:00:00", Group: "ALG-A", Discipline: "Algorithms"},
		{Day: "MONDAY", Start: "10:00:00", End: "11:00:00", Group: "DB-A", Discipline: "Databases"},
		{Day: "MONDAY", Start: "08:00:00", End: "09:00:00", Group: "NET-B", Discipline: "Networks"},
		{Day: "MONDAY", Start: "08:00:00", End: "09:00:00", Group: "NET-A", Discipline: "Networks"},
	})

	assert.Equal(t, []string{"Day", "Start", "End", "Group", "Discipline", "Teacher", "Classroom"}, dataset.Headers)
	require.Len(t, dataset.Rows, 4)
	assert.Equal(t, "NET-A", dataset.Rows[0]["Group"])
	assert.Equal(t, "NET-B", dataset.Rows[1]["Group"])
	assert.Equal(t, "DB-A", dataset.Rows[2]["Group"])
	assert.Equal(t, "ALG-A", dataset.Rows[3]["Group"])
}

func TestTimetableDatasetRendersToCSV(t *testing.T) {
	dataset := TimetableDataset([]TimetableRow{
		{Day: "FRIDAY", Start: "08:00:00", End: "09:00:00", Group: "ALG-A", Discipline: "Algorithms", Teacher: "Ada Lovelace", Classroom: "Lab 1"},
	})

	data, err := NewCSVExporter().Render(dataset)
	require.NoError(t, err)
	assert.Equal(t,
		"Day,Start,End,Group,Discipline,Teacher,Classroom\n"+
			"FRIDAY,08:00:00,09:00:00,ALG-A,Algorithms,Ada Lovelace,Lab 1\n",
		string(data))
}

func TestTimetableDatasetEmpty(t *testing.T) {
	dataset := TimetableDataset(nil)
	assert.Empty(t, dataset.Rows)

	data, err := NewCSVExporter().Render(dataset)
	require.NoError(t, err)
	assert.Equal(t, "Day,Start,End,Group,Discipline,Teacher,Classroom\n", string(data))
}
