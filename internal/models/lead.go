package models

import "time"

// LeadStatus represents the pipeline state of a sales lead
type LeadStatus string

const (
	LeadNew       LeadStatus = "New"
	LeadFollowUp  LeadStatus = "Follow-Up"
	LeadEstimate  LeadStatus = "Estimate Sent"
	LeadSold      LeadStatus = "Sold"
	LeadConverted LeadStatus = "Converted"
	LeadLost      LeadStatus = "Lost"
)

// Lead history action labels
const (
	LeadActionCreated      = "Created"
	LeadActionStatusChange = "Status Change"
	LeadActionFollowUpSet  = "Follow-up Set"
	LeadActionNoteAdded    = "Note Added"
	LeadActionConverted    = "Converted"
)

// Lead represents a sales inquiry moving through the pipeline. Notes are
// only ever appended to, never replaced.
type Lead struct {
	ID            string     `bson:"_id,omitempty" json:"id"`
	Name          string     `bson:"name" json:"name"`
	Phone         string     `bson:"phone" json:"phone"`
	Email         string     `bson:"email,omitempty" json:"email,omitempty"`
	Address       string     `bson:"address,omitempty" json:"address,omitempty"`
	Source        string     `bson:"source" json:"source"` // Walk-in / Referral / Web / Phone
	Status        LeadStatus `bson:"status" json:"status"`
	Notes         string     `bson:"notes" json:"notes"`
	CreatedAt     string     `bson:"created_at" json:"createdAt"`
	NextFollowUp  string     `bson:"next_follow_up,omitempty" json:"nextFollowUp,omitempty"`
	EstimateValue float64    `bson:"estimate_value,omitempty" json:"estimateValue,omitempty"`
	LossReason    string     `bson:"loss_reason,omitempty" json:"lossReason,omitempty"`
}

// LeadHistory is one row of a lead's append-only activity log.
type LeadHistory struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	LeadID    string    `bson:"lead_id" json:"leadId"`
	Action    string    `bson:"action" json:"action"`
	Details   string    `bson:"details" json:"details"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// LeadUpdate is a partial lead update; only non-nil fields are written.
type LeadUpdate struct {
	Status        *LeadStatus `json:"status,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	NextFollowUp  *string     `json:"nextFollowUp,omitempty"`
	EstimateValue *float64    `json:"estimateValue,omitempty"`
	LossReason    *string     `json:"lossReason,omitempty"`
	Email         *string     `json:"email,omitempty"`
	Address       *string     `json:"address,omitempty"`
}

// leadTransitions is the legal transition table for lead statuses. The
// quick actions on the board allow skipping intermediate stages forward.
// Follow-Up permits a self-transition so a pending follow-up can be
// rescheduled, like ticket reassignment.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadNew:      {LeadFollowUp, LeadEstimate, LeadSold, LeadLost},
	LeadFollowUp: {LeadFollowUp, LeadEstimate, LeadSold, LeadLost},
	LeadEstimate: {LeadSold, LeadLost},
	LeadSold:     {LeadConverted},
}

// CanTransition reports whether a lead may move from one status to
// another. Converted and Lost are terminal.
func (s LeadStatus) CanTransition(to LeadStatus) bool {
	for _, next := range leadTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (s LeadStatus) IsTerminal() bool {
	return len(leadTransitions[s]) == 0
}

// IsValidLeadStatus checks if a status value is known
func IsValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadNew, LeadFollowUp, LeadEstimate, LeadSold, LeadConverted, LeadLost:
		return true
	default:
		return false
	}
}

// AppendNotes concatenates new notes onto existing ones, preserving the
// previous content as a prefix.
func AppendNotes(existing, extra string) string {
	if extra == "" {
		return existing
	}
	if existing == "" {
		return extra
	}
	return existing + "\n" + extra
}
