package broker

import (
	"errors"
	"fmt"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRejected
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	default:
		return "transport_failure"
	}
}

// RejectedError брокер ответил, но отказал: код ошибки API или dealStatus=REJECTED.
type RejectedError struct {
	Op     string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// TransportError до брокера не достучались или ответ не разобрали.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func Rejected(op, reason string) error { return &RejectedError{Op: op, Reason: reason} }

func Transport(op string, err error) error { return &TransportError{Op: op, Err: err} }

// Classify раскладывает ошибку брокера по исходам. Неизвестная ошибка считается транспортной.
func Classify(err error) (Outcome, string) {
	if err == nil {
		return OutcomeSuccess, ""
	}
	var rej *RejectedError
	if errors.As(err, &rej) {
		return OutcomeRejected, rej.Reason
	}
	return OutcomeTransportFailure, err.Error()
}
