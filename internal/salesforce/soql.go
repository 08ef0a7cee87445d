package salesforce

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dev-tams/gluekit/internal/validation"
)

var ErrFieldsRequired = errors.New("fields to extract are required when excluding ids")

// Glue Salesforce connector option keys.
const (
	OptConnectionName = "connectionName"
	OptAPIVersion     = "API_VERSION"
	OptEntityName     = "ENTITY_NAME"
	OptSelectFields   = "SELECT_FIELDS"
	OptQuery          = "QUERY"
)

// BuildSecureSOQLQuery selects fields from entity, excluding ignoreIDs. Every
// input must pass validation.VerifySanitized before it is interpolated.
func BuildSecureSOQLQuery(entity string, fields, ignoreIDs []string) (string, error) {
	if len(ignoreIDs) > 0 && len(fields) == 0 {
		return "", ErrFieldsRequired
	}

	if err := validation.VerifySanitized(entity); err != nil {
		return "", fmt.Errorf("entity: %w", err)
	}
	if err := validation.VerifySanitized(fields...); err != nil {
		return "", fmt.Errorf("fields: %w", err)
	}
	if err := validation.VerifySanitized(ignoreIDs...); err != nil {
		return "", fmt.Errorf("ignore ids: %w", err)
	}

	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE Id NOT IN ('%s')",
		strings.Join(fields, ","),
		entity,
		strings.Join(ignoreIDs, "','"),
	), nil
}

// ConnectionOptions builds the connector options for reading entity. Fields
// alone become SELECT_FIELDS; any excluded id switches to a generated QUERY.
func ConnectionOptions(log zerolog.Logger, connectionName, apiVersion, entity string, fields, ignoreIDs []string) (map[string]any, error) {
	opts := map[string]any{
		OptConnectionName: connectionName,
		OptAPIVersion:     apiVersion,
		OptEntityName:     entity,
	}

	switch {
	case len(ignoreIDs) > 0:
		query, err := BuildSecureSOQLQuery(entity, fields, ignoreIDs)
		if err != nil {
			return nil, err
		}
		opts[OptQuery] = query
		log.Warn().Str("entity", entity).Str("query", query).Msg("entity using custom query")
	case len(fields) > 0:
		opts[OptSelectFields] = append([]string(nil), fields...)
	}

	return opts, nil
}

func TransformationContext(entity string) string {
	return "Salesforce_" + entity
}
