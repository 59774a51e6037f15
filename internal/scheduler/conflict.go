// Package scheduler detects booking collisions between a candidate meeting
// and the set of already-scheduled meetings sharing a venue or instructor.
package scheduler

import (
	"github.com/example/campus-scheduler/internal/calendar"
)

// ConflictKind labels the axis on which a collision was found.
type ConflictKind string

const (
	// ConflictNone indicates the candidate fits without collision.
	ConflictNone ConflictKind = ""
	// ConflictVenue indicates the venue is already booked in the window.
	ConflictVenue ConflictKind = "venue"
	// ConflictInstructor indicates the instructor is already booked in the window.
	ConflictInstructor ConflictKind = "instructor"
)

// Result reports the outcome of a conflict check. CandidateIndex is the
// 0-based position of the offending candidate for sequence checks, and 0 for
// single checks.
type Result struct {
	Kind                 ConflictKind
	ConflictingMeetingID string
	CandidateIndex       int
}

// Ok reports whether no conflict was found.
func (r Result) Ok() bool {
	return r.Kind == ConflictNone
}

var okResult = Result{}

// CheckOne scans the index for a collision with the candidate. The venue
// axis is scanned before the instructor axis, so when both collide the venue
// conflict is reported. Candidates on a different weekday never conflict.
func CheckOne(ix *Index, candidate Meeting) (Result, error) {
	if err := candidate.Window.Validate(); err != nil {
		return okResult, err
	}

	if ix != nil {
		for _, booking := range ix.venues[resourceKey{id: candidate.VenueID, day: candidate.Day}] {
			if booking.MeetingID == candidate.ID {
				continue
			}
			if calendar.RangesOverlap(booking.Window, candidate.Window) {
				return Result{Kind: ConflictVenue, ConflictingMeetingID: booking.MeetingID}, nil
			}
		}
		for _, booking := range ix.instructors[resourceKey{id: candidate.InstructorID, day: candidate.Day}] {
			if booking.MeetingID == candidate.ID {
				continue
			}
			if calendar.RangesOverlap(booking.Window, candidate.Window) {
				return Result{Kind: ConflictInstructor, ConflictingMeetingID: booking.MeetingID}, nil
			}
		}
	}

	return okResult, nil
}

// CheckSequence evaluates CheckOne for each candidate in input order and
// fails fast on the first conflict, tagging the result with the candidate's
// index. Every candidate is checked against the same snapshot: earlier
// candidates in the batch do not occupy slots for later ones.
func CheckSequence(ix *Index, candidates []Meeting) (Result, error) {
	for i, candidate := range candidates {
		result, err := CheckOne(ix, candidate)
		if err != nil {
			return okResult, err
		}
		if !result.Ok() {
			result.CandidateIndex = i
			return result, nil
		}
	}
	return okResult, nil
}

// CheckSequenceFolding is CheckSequence with batch-internal detection: each
// accepted candidate is folded into a working copy of the index before the
// next is checked, so a batch whose own members collide is rejected even
// when the persisted snapshot is empty.
func CheckSequenceFolding(ix *Index, candidates []Meeting) (Result, error) {
	working := ix.clone()
	for i, candidate := range candidates {
		result, err := CheckOne(working, candidate)
		if err != nil {
			return okResult, err
		}
		if !result.Ok() {
			result.CandidateIndex = i
			return result, nil
		}
		working.add(candidate)
		sortBookings(working.venues[resourceKey{id: candidate.VenueID, day: candidate.Day}])
		sortBookings(working.instructors[resourceKey{id: candidate.InstructorID, day: candidate.Day}])
	}
	return okResult, nil
}
