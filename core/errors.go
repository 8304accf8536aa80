package core

import "errors"

var (
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidPattern   = errors.New("invalid search pattern")
	ErrOverlappingEdits = errors.New("overlapping edits")
	ErrNothingToUndo    = errors.New("already at oldest change")
	ErrNothingToRedo    = errors.New("already at newest change")
)
