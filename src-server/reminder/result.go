package reminder

type Status string

const (
	StatusArmed    Status = "armed"
	StatusRejected Status = "rejected"
)

type Reason string

const (
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonTooSoon          Reason = "too_soon"
	ReasonInvalidTime      Reason = "invalid_time"
	ReasonHostError        Reason = "host_error"
)

// Result is the outcome of one scheduling attempt: Armed with the host
// trigger id, or Rejected with the reason.
type Result struct {
	Status    Status `json:"status"`
	TriggerID string `json:"triggerId,omitempty"`
	Reason    Reason `json:"reason,omitempty"`
	// Seconds is the lead time computed for the attempt, when it got that far.
	Seconds int64 `json:"seconds"`
}

func Armed(triggerID string, seconds int64) Result {
	return Result{Status: StatusArmed, TriggerID: triggerID, Seconds: seconds}
}

func Rejected(reason Reason, seconds int64) Result {
	return Result{Status: StatusRejected, Reason: reason, Seconds: seconds}
}

func (r Result) IsArmed() bool {
	return r.Status == StatusArmed
}
