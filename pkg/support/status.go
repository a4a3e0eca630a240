package support

import messages "github.com/cucumber/messages/go/v21"

var statusSeverity = map[messages.TestStepResultStatus]int{
	messages.TestStepResultStatus_UNKNOWN:   0,
	messages.TestStepResultStatus_PASSED:    1,
	messages.TestStepResultStatus_SKIPPED:   2,
	messages.TestStepResultStatus_PENDING:   3,
	messages.TestStepResultStatus_UNDEFINED: 4,
	messages.TestStepResultStatus_AMBIGUOUS: 5,
	messages.TestStepResultStatus_FAILED:    6,
}

// WorstStatus returns the most severe of the given statuses, PASSED when
// none are given.
func WorstStatus(statuses ...messages.TestStepResultStatus) messages.TestStepResultStatus {
	worst := messages.TestStepResultStatus_PASSED
	for _, status := range statuses {
		if statusSeverity[status] > statusSeverity[worst] {
			worst = status
		}
	}

	return worst
}

// IsSuccess reports whether a status lets the run succeed.
func IsSuccess(status messages.TestStepResultStatus) bool {
	return status == messages.TestStepResultStatus_PASSED || status == messages.TestStepResultStatus_SKIPPED
}
