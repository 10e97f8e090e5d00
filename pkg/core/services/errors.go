package services

import "errors"

var (
	ErrNotPermitted   = errors.New("the current session is not allowed to do this")
	ErrUnknownMember  = errors.New("member is not part of the team")
	ErrReportExists   = errors.New("a visit report already exists for this schedule")
	ErrReportNotFound = errors.New("no visit report exists for this schedule")
)
