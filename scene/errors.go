package scene

import "errors"

var (
	// ErrDuplicateName is returned by Add when the scene rejects duplicate names.
	ErrDuplicateName = errors.New("scene: duplicate entity name")
	// ErrUnknownType is returned when a persisted entity type has no factory.
	ErrUnknownType = errors.New("scene: unknown entity type")
	ErrNotFound    = errors.New("scene: entity not found")
	// ErrSelfTarget is returned when a persisted camera names itself as its target.
	ErrSelfTarget = errors.New("scene: camera targets itself")
)
