package llm

// Operation names one of the gateway's model calls.
type Operation string

const (
	// OpEvaluate is the full website evaluation.
	OpEvaluate Operation = "evaluate"
	// OpLocalSearch is the local competitor scan.
	OpLocalSearch Operation = "local-search"
	// OpIndustryAnalysis is the industry gap analysis.
	OpIndustryAnalysis Operation = "industry-analysis"
)

// OperationError is what every failed gateway call returns. Error() is the user-facing message;
// the underlying transport or parse failure is only reachable through Cause/Unwrap.
type OperationError struct {
	Op      Operation
	Message string
	cause   error
}

// Error returns the user-facing message.
func (e *OperationError) Error() (msg string) {
	msg = e.Message
	return msg
}

// Cause returns the underlying failure, for github.com/pkg/errors.Cause.
func (e *OperationError) Cause() (cause error) {
	cause = e.cause
	return cause
}

// Unwrap returns the underlying failure.
func (e *OperationError) Unwrap() (cause error) {
	cause = e.cause
	return cause
}

// Is matches any OperationError for the same operation, so errors.Is(err, ErrEvaluationFailed) works.
func (e *OperationError) Is(target error) (ok bool) {
	t, isOpErr := target.(*OperationError)
	ok = isOpErr && t.Op == e.Op
	return ok
}

//nolint:gochecknoglobals // sentinel errors
var (
	// ErrEvaluationFailed matches failed evaluations.
	ErrEvaluationFailed = &OperationError{Op: OpEvaluate, Message: "Failed to evaluate website. Please check the URL and try again."}
	// ErrLocalSearchFailed matches failed local competitor scans.
	ErrLocalSearchFailed = &OperationError{Op: OpLocalSearch, Message: "Failed to find local competitors."}
	// ErrIndustryAnalysisFailed matches failed industry gap analyses.
	ErrIndustryAnalysisFailed = &OperationError{Op: OpIndustryAnalysis, Message: "Failed to perform industry gap analysis."}
)

// sentinelFor returns the sentinel carrying the user-facing message for op.
func sentinelFor(op Operation) (sentinel *OperationError) {
	switch op {
	case OpLocalSearch:
		sentinel = ErrLocalSearchFailed
	case OpIndustryAnalysis:
		sentinel = ErrIndustryAnalysisFailed
	default:
		sentinel = ErrEvaluationFailed
	}
	return sentinel
}
