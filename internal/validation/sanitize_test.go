package validation

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySanitizedAcceptsIdentifiers(t *testing.T) {
	require.NoError(t, VerifySanitized("Account", "Last_Modified_Date__c", "0015g00000XyZAB"))
	require.NoError(t, VerifySanitized())
}

func TestVerifySanitizedRejects(t *testing.T) {
	err := VerifySanitized("Account", "Name'; DROP", "Id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsanitized))

	var ue *UnsanitizedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Name'; DROP", ue.Input)
	assert.Equal(t, []string{" ", "'", ";"}, ue.Invalid)
}

func TestVerifySanitizedRejectsEmpty(t *testing.T) {
	assert.ErrorIs(t, VerifySanitized(""), ErrUnsanitized)
}

func TestVerifySanitizedWithOverridePattern(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	require.NoError(t, VerifySanitizedWith(log, `^[a-z.-]+$`, "my-bucket.logs"))
	assert.Contains(t, buf.String(), "overriding default sanitization pattern")

	err := VerifySanitizedWith(log, `^[a-z.-]+$`, "Upper")
	assert.ErrorIs(t, err, ErrUnsanitized)
}

func TestVerifySanitizedWithEmptyPatternUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	assert.ErrorIs(t, VerifySanitizedWith(log, "", "a-b"), ErrUnsanitized)
	assert.Empty(t, buf.String())
}

func TestVerifySanitizedWithBadPattern(t *testing.T) {
	err := VerifySanitizedWith(zerolog.Nop(), `([`, "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsanitized)
}
