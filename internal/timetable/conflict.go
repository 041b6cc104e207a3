package timetable

import "github.com/classmanager/backend/internal/models"

// conflictMessages maps wire conflict codes to user-facing messages. The
// lookup is a pure table: the same code always yields the same message.
var conflictMessages = map[models.ConflictCode]string{
	models.ConflictTeacher:          "The teacher already has a lesson scheduled in this slot.",
	models.ConflictRoom:             "The classroom is already occupied in this slot.",
	models.ConflictGroup:            "The group already has a lesson scheduled in this slot.",
	models.ConflictTermFinalized:    "This term is finalized and no longer accepts changes.",
	models.ConflictDayNotAllowed:    "This weekday is not part of the course time window.",
	models.ConflictOutsideWindow:    "The slot lies outside the course time window.",
	models.ConflictDurationMismatch: "The slot length does not match the course lesson duration.",
}

const unknownConflictMessage = "The placement was rejected by the scheduling service."

// TranslateConflict returns the message for a conflict code. Codes missing
// from the table fall back to a generic message; an empty message is never
// returned.
func TranslateConflict(code models.ConflictCode) string {
	if msg, ok := conflictMessages[code]; ok {
		return msg
	}
	return unknownConflictMessage
}
