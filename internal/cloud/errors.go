// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing failure messages.
const (
	MsgAuthFailed          = "Invalid API Key. Please check your credentials."
	MsgInsufficientCredits = "Insufficient credits. Your account balance is too low for this request."
	MsgConnectionFailed    = "Failed to connect to the AI provider."
	MsgNotConfigured       = "API key is not configured."
	MsgInvalidPayload      = "The request has no user message to send."
)

// Sentinels matched by errors.Is against a *Failure.
var (
	// ErrAuthFailed indicates the provider rejected the API key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInsufficientCredits indicates the account cannot pay for the request.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrProvider covers every other transport or provider failure.
	ErrProvider = errors.New("provider error")
)

// Kind classifies a Failure.
type Kind int

const (
	KindProvider Kind = iota
	KindAuthentication
	KindInsufficientBalance
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindInsufficientBalance:
		return "insufficient_balance"
	default:
		return "provider"
	}
}

// Failure is the error returned for a failed completion.
type Failure struct {
	Kind    Kind
	Message string // shown to the user
	Status  int    // HTTP status, 0 when no response was received
	Code    string // provider error code, when reported
	Err     error  // underlying cause, when there is one
}

// Error returns the user-facing message.
func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return MsgConnectionFailed
}

// Detail returns a log-friendly description including status and cause.
func (f *Failure) Detail() string {
	d := fmt.Sprintf("%s failure (HTTP %d): %s", f.Kind, f.Status, f.Error())
	if f.Code != "" {
		d += " [" + f.Code + "]"
	}
	if f.Err != nil {
		d += ": " + f.Err.Error()
	}
	return d
}

// Unwrap returns the cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel for the failure's kind.
func (f *Failure) Is(target error) bool {
	switch f.Kind {
	case KindAuthentication:
		return target == ErrAuthFailed
	case KindInsufficientBalance:
		return target == ErrInsufficientCredits
	default:
		return target == ErrProvider
	}
}

// KindOf returns the kind of err, or KindProvider when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindProvider
}

// failureForStatus maps an HTTP error response to a Failure. providerMsg is
// the provider's own message, possibly empty.
func failureForStatus(status int, code, providerMsg string) *Failure {
	switch status {
	case http.StatusUnauthorized:
		return &Failure{Kind: KindAuthentication, Message: MsgAuthFailed, Status: status, Code: code}
	case http.StatusPaymentRequired:
		return &Failure{Kind: KindInsufficientBalance, Message: MsgInsufficientCredits, Status: status, Code: code}
	}
	msg := providerMsg
	if msg == "" {
		msg = MsgConnectionFailed
	}
	return &Failure{Kind: KindProvider, Message: msg, Status: status, Code: code}
}
