package services

import "net/http"

// OutcomeCode is the tagged result of the callback pipeline. The HTTP
// status is a pure function of the code so the handler contains no policy.
type OutcomeCode string

const (
	OutcomeProcessed         OutcomeCode = "processed"
	OutcomeDuplicate         OutcomeCode = "duplicate"
	OutcomeRejectedRateLimit OutcomeCode = "rejected_rate_limit"
	OutcomeRejectedIP        OutcomeCode = "rejected_ip"
	OutcomeRejectedSignature OutcomeCode = "rejected_signature"
	OutcomeRejectedPayload   OutcomeCode = "rejected_payload"
	OutcomeMismatchReference OutcomeCode = "mismatch_reference"
	OutcomeMismatchMethod    OutcomeCode = "mismatch_method"
	OutcomeFailedInternal    OutcomeCode = "failed_internal"
)

// HTTPStatus maps an outcome to the response contract the aggregator's
// retry logic depends on. Duplicates map to 200: acknowledging them as
// delivered is what stops the retry loop.
func (c OutcomeCode) HTTPStatus() int {
	switch c {
	case OutcomeProcessed, OutcomeDuplicate:
		return http.StatusOK
	case OutcomeRejectedRateLimit:
		return http.StatusTooManyRequests
	case OutcomeRejectedIP:
		return http.StatusForbidden
	case OutcomeRejectedSignature:
		return http.StatusUnauthorized
	case OutcomeRejectedPayload, OutcomeMismatchMethod:
		return http.StatusBadRequest
	case OutcomeMismatchReference:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Outcome is what the pipeline hands back to the HTTP layer.
type Outcome struct {
	Code    OutcomeCode
	Message string
	// Errors carries field-level validation details on rejected payloads.
	Errors map[string]string
}

// Success reports whether the aggregator should treat the callback as
// delivered (processed or duplicate).
func (o Outcome) Success() bool {
	return o.Code == OutcomeProcessed || o.Code == OutcomeDuplicate
}

func processed() Outcome {
	return Outcome{Code: OutcomeProcessed, Message: "callback processed"}
}

func duplicate() Outcome {
	return Outcome{Code: OutcomeDuplicate, Message: "callback already processed"}
}

func rejected(code OutcomeCode, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

func failed(message string) Outcome {
	return Outcome{Code: OutcomeFailedInternal, Message: message}
}
