package calendar

import (
	"sort"
	"time"

	bookingModel "marketplace-booking/models/booking"
	timeoffModel "marketplace-booking/models/timeoff"

	"github.com/jinzhu/now"
)

// EventType tags the two collections merged into the calendar grid.
type EventType string

const (
	EventTypeTimeOff EventType = "timeoff"
	EventTypeBooking EventType = "booking"
)

// Event is the unified calendar entry for one booking or time-off block.
type Event struct {
	ID     uint                      `json:"id"`
	Type   EventType                 `json:"type"`
	Status bookingModel.BookingStatus `json:"status,omitempty"` // bookings only
	Title  string                    `json:"title"`
	Start  time.Time                 `json:"start"`
	End    time.Time                 `json:"end"`
}

// FromBooking derives the calendar event for a booking. Unscheduled bookings
// occupy their creation day.
func FromBooking(b bookingModel.Booking) Event {
	start := b.CreatedAt
	if b.ScheduledAt != nil {
		start = *b.ScheduledAt
	}
	title := b.Service.Title
	if title == "" {
		title = b.BookingNumber
	}
	return Event{
		ID:     b.ID,
		Type:   EventTypeBooking,
		Status: b.Status,
		Title:  title,
		Start:  start,
		End:    start,
	}
}

// FromTimeOff derives the calendar event for a time-off block.
func FromTimeOff(t timeoffModel.TimeOffBlock) Event {
	title := t.Reason
	if title == "" {
		title = "Time off"
	}
	return Event{
		ID:    t.ID,
		Type:  EventTypeTimeOff,
		Title: title,
		Start: t.StartTime,
		End:   t.EndTime,
	}
}

// Merge combines both collections into one priority-sorted event list.
func Merge(bookings []bookingModel.Booking, timeOffs []timeoffModel.TimeOffBlock) []Event {
	events := make([]Event, 0, len(bookings)+len(timeOffs))
	for _, t := range timeOffs {
		events = append(events, FromTimeOff(t))
	}
	for _, b := range bookings {
		events = append(events, FromBooking(b))
	}
	SortByPriority(events)
	return events
}

// priority orders events sharing a day: time-off first, then pending,
// accepted, paid, completed, anything else last.
func priority(e Event) int {
	if e.Type == EventTypeTimeOff {
		return 0
	}
	switch e.Status {
	case bookingModel.BookingStatusPending:
		return 1
	case bookingModel.BookingStatusAccepted:
		return 2
	case bookingModel.BookingStatusPaid:
		return 3
	case bookingModel.BookingStatusCompleted:
		return 4
	default:
		return 5
	}
}

// SortByPriority sorts events by display priority; ties break on start time
// then id so the ordering is deterministic.
func SortByPriority(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		pi, pj := priority(events[i]), priority(events[j])
		if pi != pj {
			return pi < pj
		}
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
}

// OverlapsDay reports whether the event's [start,end] interval touches the
// calendar day containing day. Both day boundaries are inclusive.
func OverlapsDay(e Event, day time.Time) bool {
	dayStart := now.With(day).BeginningOfDay()
	dayEnd := now.With(day).EndOfDay()
	return !e.End.Before(dayStart) && !e.Start.After(dayEnd)
}

// EventsForDay filters the merged set to those overlapping the given day,
// preserving priority order.
func EventsForDay(events []Event, day time.Time) []Event {
	var out []Event
	for _, e := range events {
		if OverlapsDay(e, day) {
			out = append(out, e)
		}
	}
	return out
}
