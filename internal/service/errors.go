package service

import "errors"

var (
	ErrNoSession       = errors.New("no active session")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrRequestNotFound = errors.New("request not found")
	ErrChatBusy        = errors.New("assistant is still answering")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrFlowNotFound    = errors.New("onboarding flow not found")
	ErrInvalidToken    = errors.New("invalid token")
)
