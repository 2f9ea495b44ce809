package service

import (
	"errors"
	"fmt"

	"github.com/shaharia-lab/pushrelay/internal/credential"
	"github.com/shaharia-lab/pushrelay/internal/notification"
	"github.com/shaharia-lab/pushrelay/internal/token"
)

// Failure stages, used as metric labels and log attributes.
const (
	StageParse         = "parse"
	StageCredential    = "credential"
	StageSigning       = "signing"
	StageTokenExchange = "token_exchange"
	StageDispatch      = "dispatch"
	StageInternal      = "internal"
)

// RequestParseError is returned when the webhook body is not a valid change event.
type RequestParseError struct {
	Err error
}

func (e *RequestParseError) Error() string {
	return fmt.Sprintf("invalid request body: %v", e.Err)
}

func (e *RequestParseError) Unwrap() error { return e.Err }

// FailureStage reports which step of the relay produced err.
func FailureStage(err error) string {
	var (
		parseErr    *RequestParseError
		missingErr  *credential.MissingFieldError
		keyErr      *credential.KeyParseError
		signErr     *token.SigningError
		exchangeErr *token.ExchangeError
		dispatchErr *notification.DispatchError
	)
	switch {
	case errors.As(err, &parseErr):
		return StageParse
	case errors.As(err, &missingErr), errors.As(err, &keyErr):
		return StageCredential
	case errors.As(err, &signErr):
		return StageSigning
	case errors.As(err, &exchangeErr):
		return StageTokenExchange
	case errors.As(err, &dispatchErr):
		return StageDispatch
	default:
		return StageInternal
	}
}
