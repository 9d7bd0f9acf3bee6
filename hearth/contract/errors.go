package contract

import "errors"

var (
	ErrStorage          = errors.New("registry storage failure")
	ErrInvalidMemberID  = errors.New("member id is empty")
	ErrInvalidGroupKey  = errors.New("group key is empty")
	ErrConfigValidation = errors.New("group config validation failed")
)
