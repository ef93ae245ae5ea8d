package service

import "errors"

// Service errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrQuizNotCreated   = errors.New("quiz could not be generated")
	ErrInvalidQuiz      = errors.New("generated quiz is invalid")
	ErrUnknownIntent    = errors.New("unknown assistant intent")
	ErrResourceNotFound = errors.New("resource not found")
)
