package validators

import "errors"

var (
	// ErrUnsupportedType is returned when the validator is given an object it has no rules for.
	ErrUnsupportedType = errors.New("unsupported type for validation")

	// ErrUnknownField is returned when a requested field does not exist on the validated object.
	ErrUnknownField = errors.New("unknown field")

	// ErrMissingEntityID is returned when an operation names no entity.
	ErrMissingEntityID = errors.New("entity id is required")

	// ErrUnknownEntityType is returned when an operation carries an unrecognized entity type.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrUnknownKind is returned when an operation carries an unrecognized kind.
	ErrUnknownKind = errors.New("unknown operation kind")

	// ErrMissingPayload is returned when a create or update operation carries no payload.
	ErrMissingPayload = errors.New("payload is required")

	// ErrUnexpectedPayload is returned when a delete operation carries a payload.
	ErrUnexpectedPayload = errors.New("delete operations carry no payload")

	// ErrPayloadMismatch is returned when the payload's entity type differs from the operation's.
	ErrPayloadMismatch = errors.New("payload does not match operation entity type")

	// ErrMissingTitle is returned when a content payload has a blank title.
	ErrMissingTitle = errors.New("title is required")

	// ErrTitleTooLong is returned when a content title exceeds the allowed length.
	ErrTitleTooLong = errors.New("title is too long")

	// ErrInvalidFormat is returned when a content payload names an unsupported format.
	ErrInvalidFormat = errors.New("unsupported content format")

	// ErrEmptyTag is returned when a content payload carries a blank tag.
	ErrEmptyTag = errors.New("tags cannot be blank")

	// ErrScoreOutOfRange is returned when a progress score falls outside 0..100.
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")

	// ErrNegativePosition is returned when a progress position is negative.
	ErrNegativePosition = errors.New("position cannot be negative")

	// ErrInvalidTheme is returned when a settings payload names an unsupported theme.
	ErrInvalidTheme = errors.New("unsupported theme")

	// ErrNegativeSyncInterval is returned when a settings sync interval is negative.
	ErrNegativeSyncInterval = errors.New("sync interval cannot be negative")

	// ErrMissingEndpoints is returned when a relationship lacks a source or target id.
	ErrMissingEndpoints = errors.New("relationship requires source and target ids")

	// ErrSelfRelation is returned when a relationship points an entity at itself.
	ErrSelfRelation = errors.New("relationship cannot link an entity to itself")

	// ErrMissingRelation is returned when a relationship has a blank relation name.
	ErrMissingRelation = errors.New("relation name is required")
)
