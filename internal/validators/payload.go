package validators

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/loreleaf/loreleaf/models"
)

// Field names accepted by PayloadValidator for scoped validation.
const (
	// FieldTitle is the title of a content payload.
	FieldTitle = "title"
	// FieldFormat is the body format of a content payload.
	FieldFormat = "format"
	// FieldTags is the tag list of a content payload.
	FieldTags = "tags"
	// FieldScore is the score of a progress payload.
	FieldScore = "score"
	// FieldPosition is the position of a progress payload.
	FieldPosition = "position"
	// FieldTheme is the theme of a settings payload.
	FieldTheme = "theme"
	// FieldSyncInterval is the sync interval of a settings payload.
	FieldSyncInterval = "sync_interval_sec"
	// FieldSourceID is the source entity of a relationship payload.
	FieldSourceID = "source_id"
	// FieldTargetID is the target entity of a relationship payload.
	FieldTargetID = "target_id"
	// FieldRelation is the relation name of a relationship payload.
	FieldRelation = "relation"
)

// maxTitleLength caps content titles, matching the remote's column width.
const maxTitleLength = 512

var (
	allowedFormats = []string{"markdown", "plain", "html"}
	allowedThemes  = []string{"light", "dark", "system"}
)

// PayloadValidator validates sync operations and their payloads.
//
// A whole models.SyncOperation is validated against its kind: creates
// check the full payload, updates check only the fields the payload
// sets, deletes must carry no payload at all. Individual payloads can
// also be validated directly, optionally scoped to named fields.
type PayloadValidator struct{}

// NewPayloadValidator returns a Validator for operations and payloads.
func NewPayloadValidator() Validator {
	return &PayloadValidator{}
}

// Validate implements Validator.
func (v *PayloadValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SyncOperation:
		return v.validateOperation(ctx, value)
	case *models.SyncOperation:
		return v.validateOperation(ctx, *value)
	case models.ContentPayload:
		return v.validateContent(value, fields...)
	case *models.ContentPayload:
		return v.validateContent(*value, fields...)
	case models.ProgressPayload:
		return v.validateProgress(value, fields...)
	case *models.ProgressPayload:
		return v.validateProgress(*value, fields...)
	case models.SettingsPayload:
		return v.validateSettings(value, fields...)
	case *models.SettingsPayload:
		return v.validateSettings(*value, fields...)
	case models.RelationshipPayload:
		return v.validateRelationship(value, fields...)
	case *models.RelationshipPayload:
		return v.validateRelationship(*value, fields...)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func (v *PayloadValidator) validateOperation(ctx context.Context, op models.SyncOperation) error {
	if op.EntityID == "" {
		return ErrMissingEntityID
	}
	if !models.KnownEntityType(op.EntityType) {
		return fmt.Errorf("%w: %q", ErrUnknownEntityType, op.EntityType)
	}
	if !models.KnownOperationKind(op.Kind) {
		return fmt.Errorf("%w: %q", ErrUnknownKind, op.Kind)
	}

	if op.Kind == models.OpDelete {
		if op.Payload != nil {
			return ErrUnexpectedPayload
		}
		return nil
	}

	if op.Payload == nil {
		return fmt.Errorf("%w: %s %s", ErrMissingPayload, op.Kind, op.EntityType)
	}
	if op.Payload.EntityType() != op.EntityType {
		return fmt.Errorf("%w: %s payload on a %s operation", ErrPayloadMismatch, op.Payload.EntityType(), op.EntityType)
	}

	if op.Kind == models.OpCreate {
		return v.Validate(ctx, op.Payload)
	}

	fields := setFields(op.Payload)
	if len(fields) == 0 {
		return nil
	}
	return v.Validate(ctx, op.Payload, fields...)
}

func (v *PayloadValidator) validateContent(p models.ContentPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldFormat, FieldTags}
	}
	for _, field := range fields {
		switch field {
		case FieldTitle:
			if strings.TrimSpace(p.Title) == "" {
				return ErrMissingTitle
			}
			if len(p.Title) > maxTitleLength {
				return fmt.Errorf("%w: %d bytes", ErrTitleTooLong, len(p.Title))
			}
		case FieldFormat:
			if p.Format != "" && !slices.Contains(allowedFormats, p.Format) {
				return fmt.Errorf("%w: %q", ErrInvalidFormat, p.Format)
			}
		case FieldTags:
			for _, tag := range p.Tags {
				if strings.TrimSpace(tag) == "" {
					return ErrEmptyTag
				}
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	return nil
}

func (v *PayloadValidator) validateProgress(p models.ProgressPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldScore, FieldPosition}
	}
	for _, field := range fields {
		switch field {
		case FieldScore:
			if p.Score < 0 || p.Score > 100 {
				return fmt.Errorf("%w: got %g", ErrScoreOutOfRange, p.Score)
			}
		case FieldPosition:
			if p.Position < 0 {
				return fmt.Errorf("%w: got %d", ErrNegativePosition, p.Position)
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	return nil
}

func (v *PayloadValidator) validateSettings(p models.SettingsPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldTheme, FieldSyncInterval}
	}
	for _, field := range fields {
		switch field {
		case FieldTheme:
			if p.Theme != "" && !slices.Contains(allowedThemes, p.Theme) {
				return fmt.Errorf("%w: %q", ErrInvalidTheme, p.Theme)
			}
		case FieldSyncInterval:
			if p.SyncIntervalSec < 0 {
				return fmt.Errorf("%w: got %d", ErrNegativeSyncInterval, p.SyncIntervalSec)
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	return nil
}

func (v *PayloadValidator) validateRelationship(p models.RelationshipPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldSourceID, FieldTargetID, FieldRelation}
	}
	for _, field := range fields {
		switch field {
		case FieldSourceID, FieldTargetID:
			if p.SourceID == "" || p.TargetID == "" {
				return ErrMissingEndpoints
			}
			if p.SourceID == p.TargetID {
				return ErrSelfRelation
			}
		case FieldRelation:
			if strings.TrimSpace(p.Relation) == "" {
				return ErrMissingRelation
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	return nil
}

// setFields reports which fields an update payload actually sets, so
// partial updates are not failed for the fields they leave alone.
// Progress payloads replace wholesale and always validate in full.
func setFields(p models.Payload) []string {
	var fields []string
	switch value := p.(type) {
	case models.ContentPayload:
		if value.Title != "" {
			fields = append(fields, FieldTitle)
		}
		if value.Format != "" {
			fields = append(fields, FieldFormat)
		}
		if len(value.Tags) > 0 {
			fields = append(fields, FieldTags)
		}
	case models.ProgressPayload:
		fields = append(fields, FieldScore, FieldPosition)
	case models.SettingsPayload:
		if value.Theme != "" {
			fields = append(fields, FieldTheme)
		}
		if value.SyncIntervalSec != 0 {
			fields = append(fields, FieldSyncInterval)
		}
	case models.RelationshipPayload:
		fields = append(fields, FieldSourceID, FieldTargetID, FieldRelation)
	}
	return fields
}
