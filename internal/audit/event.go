package audit

// Decision outcomes recorded for every guard evaluation.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Causes carry the fine-grained reason a request was rejected. The wire
// response hides these distinctions; the audit trail keeps them.
const (
	CauseMissingToken   = "missing_token"
	CauseMalformedToken = "malformed_token"
	CauseInvalidToken   = "invalid_token"
	CauseUserMissing    = "user_missing"
	CauseUserInactive   = "user_inactive"
	CauseModuleAbsent   = "module_absent"
	CauseActionDenied   = "action_denied"
)

// Event is one authorization decision bound for the _audit_events table.
type Event struct {
	UserID     string
	Module     string
	Action     string
	Decision   string
	Cause      string
	Method     string
	Path       string
	DurationMs float64
}
