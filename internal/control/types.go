package control

import "github.com/jmylchreest/dunstd/internal/model"

// RecordView is the wire-safe projection of a model.Record sent across
// the control interface: just the fields a client needs to filter,
// sort, and display, leaving out the engine-internal bookkeeping
// (refcount, lock state, borrow tokens) and anything that cannot
// cross a JSON boundary (RawIcon, IconSurface).
type RecordView struct {
	ID             uint32
	AppName        string
	Summary        string
	Body           string
	Category       string
	IconName       string
	Urgency        int
	Arrival        int64 // microseconds since epoch
	StartOfDisplay int64
	TimeoutLength  int64
	DuplicateCount int
	ClosureReason  uint32 // 0 means still active
	Actions        map[string]string
	DefaultAction  string
}

// ViewFromRecord projects a model.Record down to its RecordView.
func ViewFromRecord(r *model.Record) RecordView {
	return RecordView{
		ID:             r.ID,
		AppName:        r.AppName,
		Summary:        r.Summary,
		Body:           r.Body,
		Category:       r.Category,
		IconName:       r.IconName,
		Urgency:        int(r.Urgency),
		Arrival:        r.Arrival,
		StartOfDisplay: r.StartOfDisplay,
		TimeoutLength:  r.TimeoutLength,
		DuplicateCount: r.DuplicateCount,
		ClosureReason:  uint32(r.ClosureReason),
		Actions:        r.Actions,
		DefaultAction:  r.DefaultAction,
	}
}

func viewsFromRecords(recs []*model.Record) []RecordView {
	out := make([]RecordView, len(recs))
	for i, r := range recs {
		out[i] = ViewFromRecord(r)
	}
	return out
}

// Dump is the full three-queue snapshot returned by Server.Dump,
// mirroring the original daemon's "-print" debug mode (spec EXPANSION,
// "Supplemented features" #5).
type Dump struct {
	Waiting   []RecordView `json:"waiting"`
	Displayed []RecordView `json:"displayed"`
	History   []RecordView `json:"history"`
}

// Status is the pause-level snapshot returned by Server.GetStatus.
type Status struct {
	PauseLevel int  `json:"pause_level"`
	Paused     bool `json:"paused"`
	Fullscreen bool `json:"fullscreen"`
}
