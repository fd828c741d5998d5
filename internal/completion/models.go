package completion

// Status classifies how a task attempt ended.
type Status string

const (
	SuccessWithoutGuide Status = "SUCCESS_WITHOUT_GUIDE"
	SuccessWithGuide    Status = "SUCCESS_WITH_GUIDE"
	FailureWithGuide    Status = "FAILURE_WITH_GUIDE"
)

type Result struct {
	TaskID    string `json:"taskId"`
	Status    Status `json:"status"`
	TimeSpent int64  `json:"timeSpent"`
}

// Stats summarises all completed tasks. Times are in milliseconds.
type Stats struct {
	SuccessWithoutGuide int     `json:"successWithoutGuide"`
	SuccessWithGuide    int     `json:"successWithGuide"`
	FailureWithGuide    int     `json:"failureWithGuide"`
	TotalAttempts       int     `json:"totalAttempts"`
	SelfCompletionRate  float64 `json:"selfCompletionRate"`
	MeanTimeSpent       float64 `json:"meanTimeSpent"`
	StdDevTimeSpent     float64 `json:"stdDevTimeSpent"`
}
