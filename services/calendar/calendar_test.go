package calendar

import (
	"testing"
	"time"

	bookingModel "marketplace-booking/models/booking"
	timeoffModel "marketplace-booking/models/timeoff"
)

func at(day int, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

func bookingEvent(id uint, status bookingModel.BookingStatus, start time.Time) Event {
	return Event{ID: id, Type: EventTypeBooking, Status: status, Title: "b", Start: start, End: start}
}

func TestOverlapsDayBoundaries(t *testing.T) {
	day := at(10, 12)

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside the day", at(10, 9), at(10, 17), true},
		{"ends at midnight start of day", at(9, 8), time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), true},
		{"starts at end of day", time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC), at(12, 9), true},
		{"spans the whole day", at(8, 0), at(14, 0), true},
		{"ends the day before", at(8, 0), at(9, 23), false},
		{"starts the day after", at(11, 0), at(12, 0), false},
	}

	for _, c := range cases {
		e := Event{Type: EventTypeTimeOff, Start: c.start, End: c.end}
		if got := OverlapsDay(e, day); got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestSortByPriorityOrdering(t *testing.T) {
	events := []Event{
		bookingEvent(1, bookingModel.BookingStatusCompleted, at(10, 9)),
		bookingEvent(2, bookingModel.BookingStatusDeclined, at(10, 9)),
		bookingEvent(3, bookingModel.BookingStatusPaid, at(10, 9)),
		{ID: 4, Type: EventTypeTimeOff, Start: at(10, 9), End: at(10, 17)},
		bookingEvent(5, bookingModel.BookingStatusAccepted, at(10, 9)),
		bookingEvent(6, bookingModel.BookingStatusPending, at(10, 9)),
	}

	SortByPriority(events)

	wantTypes := []EventType{EventTypeTimeOff, EventTypeBooking, EventTypeBooking, EventTypeBooking, EventTypeBooking, EventTypeBooking}
	wantStatuses := []bookingModel.BookingStatus{
		"",
		bookingModel.BookingStatusPending,
		bookingModel.BookingStatusAccepted,
		bookingModel.BookingStatusPaid,
		bookingModel.BookingStatusCompleted,
		bookingModel.BookingStatusDeclined,
	}
	for i := range events {
		if events[i].Type != wantTypes[i] || events[i].Status != wantStatuses[i] {
			t.Fatalf("position %d: expected %s/%s, got %s/%s",
				i, wantTypes[i], wantStatuses[i], events[i].Type, events[i].Status)
		}
	}
}

func TestSortByPriorityTieBreaks(t *testing.T) {
	events := []Event{
		bookingEvent(9, bookingModel.BookingStatusPending, at(10, 14)),
		bookingEvent(7, bookingModel.BookingStatusPending, at(10, 9)),
		bookingEvent(3, bookingModel.BookingStatusPending, at(10, 14)),
	}

	SortByPriority(events)

	wantIDs := []uint{7, 3, 9}
	for i, id := range wantIDs {
		if events[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, events[i].ID)
		}
	}
}

func TestMergeCombinesBookingsAndTimeOff(t *testing.T) {
	scheduled := at(12, 10)
	bookings := []bookingModel.Booking{
		{
			ID:          1,
			CreatedAt:   at(1, 8),
			Status:      bookingModel.BookingStatusAccepted,
			ScheduledAt: &scheduled,
		},
		{
			// Unscheduled bookings occupy their creation day.
			ID:        2,
			CreatedAt: at(12, 8),
			Status:    bookingModel.BookingStatusPending,
		},
	}
	timeOffs := []timeoffModel.TimeOffBlock{
		{ID: 3, StartTime: at(12, 0), EndTime: at(13, 0), Reason: "Holiday"},
	}

	events := Merge(bookings, timeOffs)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != EventTypeTimeOff {
		t.Fatalf("time off should sort first, got %s", events[0].Type)
	}
	if events[0].Title != "Holiday" {
		t.Fatalf("expected reason as title, got %q", events[0].Title)
	}

	day := EventsForDay(events, at(12, 15))
	if len(day) != 3 {
		t.Fatalf("expected all 3 events on the 12th, got %d", len(day))
	}

	empty := EventsForDay(events, at(20, 15))
	if len(empty) != 0 {
		t.Fatalf("expected no events on the 20th, got %d", len(empty))
	}
}

func TestFromBookingFallsBackToBookingNumber(t *testing.T) {
	b := bookingModel.Booking{
		ID:            5,
		CreatedAt:     at(3, 9),
		BookingNumber: "BK-42",
		Status:        bookingModel.BookingStatusPending,
	}
	e := FromBooking(b)
	if e.Title != "BK-42" {
		t.Fatalf("expected booking number title, got %q", e.Title)
	}
	if !e.Start.Equal(b.CreatedAt) {
		t.Fatalf("expected created_at start, got %v", e.Start)
	}
}
