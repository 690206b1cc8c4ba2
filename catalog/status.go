package catalog

type SubmissionStatus string

const (
	SubmissionNew        SubmissionStatus = "new"
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionResolved   SubmissionStatus = "resolved"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionNew, SubmissionInProgress, SubmissionResolved:
		return true
	}
	return false
}

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteQuoted   QuoteStatus = "quoted"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuotePending, QuoteQuoted, QuoteAccepted, QuoteRejected:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}
