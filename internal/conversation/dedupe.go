package conversation

// DedupeTracker remembers, for the lifetime of one session, which utterance
// events were already folded into history and which bookings were already
// committed. Recording cannot be undone.
type DedupeTracker struct {
	utterances map[UtteranceFingerprint]struct{}
	bookings   map[BookingFingerprint]struct{}
}

func NewDedupeTracker() *DedupeTracker {
	return &DedupeTracker{
		utterances: make(map[UtteranceFingerprint]struct{}),
		bookings:   make(map[BookingFingerprint]struct{}),
	}
}

// AdmitUtterance returns true the first time fp is seen and records it.
func (d *DedupeTracker) AdmitUtterance(fp UtteranceFingerprint) bool {
	if _, seen := d.utterances[fp]; seen {
		return false
	}
	d.utterances[fp] = struct{}{}
	return true
}

// AdmitBooking returns true the first time fp is seen and records it.
func (d *DedupeTracker) AdmitBooking(fp BookingFingerprint) bool {
	if _, seen := d.bookings[fp]; seen {
		return false
	}
	d.bookings[fp] = struct{}{}
	return true
}

// CommittedBookings reports how many distinct bookings were admitted.
func (d *DedupeTracker) CommittedBookings() int {
	return len(d.bookings)
}
