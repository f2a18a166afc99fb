package wormhole

import "github.com/saworbit/orbit-sub003/internal/bitmap"

// ResumeState tracks which windows of a transfer have been
// Acknowledged, so a reconnecting sender only re-sends missing
// windows' data and parity on reconnect.
type ResumeState struct {
	windows *bitmap.Bitmap
}

// NewResumeState allocates resume tracking for totalWindows windows
// belonging to transferID.
func NewResumeState(transferID string, totalWindows int64) *ResumeState {
	return &ResumeState{windows: bitmap.New(transferID, totalWindows)}
}

// MarkAcknowledged records windowID as delivered and integrity-verified.
func (r *ResumeState) MarkAcknowledged(windowID int64) error {
	return r.windows.Set(windowID)
}

// MissingWindows returns every window not yet acknowledged, in
// ascending order; a sender resuming a connection re-sends exactly
// these.
func (r *ResumeState) MissingWindows() []int64 {
	return r.windows.Missing()
}

// Complete reports whether every window has been acknowledged.
func (r *ResumeState) Complete() bool {
	return r.windows.Complete()
}

// Serialize/Deserialize persist the bitmap across reconnects.
func (r *ResumeState) Serialize() []byte           { return r.windows.Serialize() }
func (r *ResumeState) Deserialize(data []byte) error { return r.windows.Deserialize(data) }
