package engine

import "errors"

var (
	ErrQueueFull         = errors.New("queue is full")
	ErrNotRunning        = errors.New("engine is not running")
	ErrWrongContext      = errors.New("engine state mutated outside the owner context")
	ErrInvalidTopic      = errors.New("invalid topic")
	ErrAlreadySubscribed = errors.New("subscriber already subscribed")
	ErrNotSubscribed     = errors.New("subscriber not subscribed")
	ErrClientExists      = errors.New("client already registered")
	ErrUnknownClient     = errors.New("client not registered")
	ErrNoClient          = errors.New("no client registered for venue")
)
