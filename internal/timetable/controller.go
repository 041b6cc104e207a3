package timetable

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

// MinDragDistance is the minimum pointer displacement, in pixels, for a
// gesture to count as a drag rather than a click.
const MinDragDistance = 5.0

// Sentinel errors returned by local pre-checks. None of them involve the
// scheduling service; the server remains the authority on success.
var (
	ErrNoSelection    = errors.New("no course/term selected")
	ErrNotConfigured  = errors.New("course has no time window configured")
	ErrUnknownDay     = errors.New("weekday is not configured for this course")
	ErrUnknownSlot    = errors.New("slot is not part of the derived grid")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrEntryNotFound  = errors.New("schedule entry not in grid state")
	ErrStaleSelection = errors.New("response discarded: selection changed")
)

// PlacementRequest asks the service to place a group on an empty cell.
type PlacementRequest struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	TermID    string `json:"term_id"`
	GroupID   string `json:"group_id"`
}

// MoveRequest asks the service to move an existing entry to a new cell.
type MoveRequest struct {
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	ScheduleID string `json:"schedule_id"`
}

// Service is the scheduling backend as seen by the grid controller.
type Service interface {
	TimeWindow(ctx context.Context, courseID string) (*models.TimeWindow, error)
	Groups(ctx context.Context, courseID string, page, pageSize int) ([]models.ClassGroup, *models.Pagination, error)
	Schedules(ctx context.Context, courseID, termID string) ([]models.ScheduleEntry, error)
	PlaceSchedule(ctx context.Context, req PlacementRequest) (*models.ScheduleEntry, error)
	MoveSchedule(ctx context.Context, req MoveRequest) (*models.ScheduleEntry, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// GridState is the controller-owned aggregate for one (course, term)
// selection.
type GridState struct {
	CourseID string
	TermID   string

	// Configured is false when the course has no time window yet; the grid
	// renders an instructional empty state instead of slots.
	Configured bool

	Days    []string
	Slots   []Slot
	Entries []models.ScheduleEntry

	Groups          []models.ClassGroup
	GroupsPage      int
	GroupsPageSize  int
	GroupsTotalPage int
}

// Controller maintains GridState for one course/term selection and exposes
// the placement operations. It is confined to a single event loop: every
// operation awaits its own service call before touching state, so mutations
// never interleave. A selection epoch guards against stale responses landing
// after the user switched course or term mid-flight.
type Controller struct {
	svc    Service
	logger *zap.Logger

	epoch uint64
	state GridState
}

// NewController builds a controller around the given scheduling service.
func NewController(svc Service, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{svc: svc, logger: logger, state: GridState{GroupsPageSize: 20}}
}

// State returns a copy of the current grid state.
func (c *Controller) State() GridState {
	return c.state
}

// Select switches the controller to a new (course, term) pair. State is
// reset and the selection epoch advances so that in-flight responses for the
// previous selection are discarded when they settle.
func (c *Controller) Select(courseID, termID string) {
	c.epoch++
	pageSize := c.state.GroupsPageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	c.state = GridState{CourseID: courseID, TermID: termID, GroupsPageSize: pageSize}
}

// Load fetches the time window, derives the slot geometry and loads the
// entries and the first page of assignable groups for the active selection.
// A missing time window is not an error: the grid reports the unconfigured
// state and stays empty.
func (c *Controller) Load(ctx context.Context) error {
	if c.state.CourseID == "" || c.state.TermID == "" {
		return ErrNoSelection
	}
	epoch := c.epoch
	courseID, termID := c.state.CourseID, c.state.TermID

	window, err := c.svc.TimeWindow(ctx, courseID)
	if err != nil {
		if isNotConfigured(err) {
			if epoch != c.epoch {
				return ErrStaleSelection
			}
			c.state.Configured = false
			c.state.Days = nil
			c.state.Slots = nil
			c.state.Entries = nil
			return nil
		}
		return fmt.Errorf("fetch time window: %w", err)
	}

	slots, err := DeriveSlots(window)
	if err != nil {
		return fmt.Errorf("derive slots: %w", err)
	}

	entries, err := c.svc.Schedules(ctx, courseID, termID)
	if err != nil {
		return fmt.Errorf("fetch schedules: %w", err)
	}

	groups, pagination, err := c.svc.Groups(ctx, courseID, 1, c.state.GroupsPageSize)
	if err != nil {
		return fmt.Errorf("fetch groups: %w", err)
	}

	if epoch != c.epoch {
		return ErrStaleSelection
	}

	c.state.Configured = true
	c.state.Days = SortDays(window.DaysOfWeek)
	c.state.Slots = slots
	c.state.Entries = entries
	c.state.Groups = groups
	c.state.GroupsPage = 1
	if pagination != nil {
		c.state.GroupsTotalPage = pagination.TotalPages
	}
	return nil
}

// LoadMoreGroups fetches the next page of assignable groups, if any.
func (c *Controller) LoadMoreGroups(ctx context.Context) error {
	if c.state.CourseID == "" {
		return ErrNoSelection
	}
	if c.state.GroupsTotalPage > 0 && c.state.GroupsPage >= c.state.GroupsTotalPage {
		return nil
	}
	epoch := c.epoch
	next := c.state.GroupsPage + 1

	groups, pagination, err := c.svc.Groups(ctx, c.state.CourseID, next, c.state.GroupsPageSize)
	if err != nil {
		return fmt.Errorf("fetch groups page %d: %w", next, err)
	}
	if epoch != c.epoch {
		return ErrStaleSelection
	}

	c.state.Groups = append(c.state.Groups, groups...)
	c.state.GroupsPage = next
	if pagination != nil {
		c.state.GroupsTotalPage = pagination.TotalPages
	}
	return nil
}

// AcceptGesture reports whether a pointer displacement is large enough to be
// treated as a drag. Smaller movements are clicks and must not trigger a
// placement.
func (c *Controller) AcceptGesture(dx, dy float64) bool {
	return abs(dx) >= MinDragDistance || abs(dy) >= MinDragDistance
}

// PlaceGroup places a group onto an empty cell. The occupancy pre-check is a
// fast-fail that avoids a round-trip; it is not authoritative. State is only
// mutated after the service confirms, with the server-assigned identity.
func (c *Controller) PlaceGroup(ctx context.Context, groupID, day, slotLabel string) (*models.ScheduleEntry, error) {
	slot, err := c.resolveCell(day, slotLabel)
	if err != nil {
		return nil, err
	}
	if c.occupiedBy(day, slotLabel, "") {
		return nil, ErrCellOccupied
	}

	epoch := c.epoch
	entry, err := c.svc.PlaceSchedule(ctx, PlacementRequest{
		DayOfWeek: day,
		StartTime: slot.Start,
		EndTime:   slot.End,
		TermID:    c.state.TermID,
		GroupID:   groupID,
	})
	if err != nil {
		return nil, err
	}
	if epoch != c.epoch {
		return nil, ErrStaleSelection
	}

	c.state.Entries = append(c.state.Entries, *entry)
	return entry, nil
}

// MoveEntry moves an existing entry to a new cell. Dropping an entry on its
// own cell is a no-op with no network call.
func (c *Controller) MoveEntry(ctx context.Context, entryID, day, slotLabel string) (*models.ScheduleEntry, error) {
	slot, err := c.resolveCell(day, slotLabel)
	if err != nil {
		return nil, err
	}

	current := c.findEntry(entryID)
	if current == nil {
		return nil, ErrEntryNotFound
	}
	if current.DayOfWeek == day && FormatRange(current.StartTime, current.EndTime) == slotLabel {
		return current, nil
	}
	if c.occupiedBy(day, slotLabel, entryID) {
		return nil, ErrCellOccupied
	}

	epoch := c.epoch
	updated, err := c.svc.MoveSchedule(ctx, MoveRequest{
		DayOfWeek:  day,
		StartTime:  slot.Start,
		EndTime:    slot.End,
		ScheduleID: entryID,
	})
	if err != nil {
		return nil, err
	}
	if epoch != c.epoch {
		return nil, ErrStaleSelection
	}

	for i := range c.state.Entries {
		if c.state.Entries[i].ID == updated.ID {
			c.state.Entries[i] = *updated
			break
		}
	}
	return updated, nil
}

// RemoveEntry deletes an entry after the caller confirmed the action. State
// is untouched when the service call fails.
func (c *Controller) RemoveEntry(ctx context.Context, entryID string) error {
	if c.findEntry(entryID) == nil {
		return ErrEntryNotFound
	}

	epoch := c.epoch
	if err := c.svc.DeleteSchedule(ctx, entryID); err != nil {
		return err
	}
	if epoch != c.epoch {
		return ErrStaleSelection
	}

	entries := c.state.Entries[:0]
	for _, e := range c.state.Entries {
		if e.ID != entryID {
			entries = append(entries, e)
		}
	}
	c.state.Entries = entries
	return nil
}

// Grid projects the current entries onto the derived geometry.
func (c *Controller) Grid() Grid {
	return BuildGrid(c.state.Days, c.state.Slots, c.state.Entries)
}

func (c *Controller) resolveCell(day, slotLabel string) (Slot, error) {
	if c.state.CourseID == "" || c.state.TermID == "" {
		return Slot{}, ErrNoSelection
	}
	if !c.state.Configured {
		return Slot{}, ErrNotConfigured
	}
	dayOK := false
	for _, d := range c.state.Days {
		if d == day {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return Slot{}, ErrUnknownDay
	}
	for _, s := range c.state.Slots {
		if s.Label() == slotLabel {
			return s, nil
		}
	}
	return Slot{}, ErrUnknownSlot
}

func (c *Controller) findEntry(entryID string) *models.ScheduleEntry {
	for i := range c.state.Entries {
		if c.state.Entries[i].ID == entryID {
			return &c.state.Entries[i]
		}
	}
	return nil
}

func (c *Controller) occupiedBy(day, slotLabel, ignoreID string) bool {
	for _, e := range c.state.Entries {
		if e.ID == ignoreID {
			continue
		}
		if e.DayOfWeek == day && FormatRange(e.StartTime, e.EndTime) == slotLabel {
			return true
		}
	}
	return false
}

func isNotConfigured(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	appErr := appErrors.FromError(err)
	return appErr != nil && appErr.Code == appErrors.ErrNotConfigured.Code
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
