package models

import "time"

// DateLayout is the day key format used by the schedule store.
const DateLayout = "2006-01-02"

// ScheduleSlot is one bounded time window on an artist's day. A slot is
// bookable when it is available and not already booked; BookingID ties a
// booked slot to the request that claimed it so cancellation releases only
// its own windows.
type ScheduleSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	Booked    bool      `json:"booked"`
	BookingID string    `json:"bookingId,omitempty"`
}

// Overlaps reports whether the slot intersects [start, end).
func (s ScheduleSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}

// ScheduleDay is the per-artist, per-day schedule document. Version is the
// optimistic concurrency token; only the negotiation coordinator writes it.
type ScheduleDay struct {
	ArtistID string         `json:"artistId"`
	Date     string         `json:"date"` // DateLayout
	Slots    []ScheduleSlot `json:"slots"`
	Version  int64          `json:"version"`
}

// SlotsFor returns the slots claimed by a booking id.
func (d *ScheduleDay) SlotsFor(bookingID string) []ScheduleSlot {
	var out []ScheduleSlot
	for _, s := range d.Slots {
		if s.Booked && s.BookingID == bookingID {
			out = append(out, s)
		}
	}
	return out
}
