package extraction

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input       string
		expected    Mode
		expectError bool
	}{
		{"basic", ModeBasic, false},
		{" Mutation ", ModeMutation, false},
		{"REARRANGEMENT", ModeRearrangement, false},
		{"", ModeBasic, false},
		{"convert", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseMode(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
			assert.True(t, m.Valid())
		})
	}
}

func TestMode_Columns(t *testing.T) {
	assert.Len(t, ModeBasic.Columns(), 20)

	keys := func(cols []Column) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = c.Key
		}
		return out
	}
	assert.Equal(t, []string{FieldName, FieldAccession, ColumnRearrangedGene, ColumnLeftBreakpoint, ColumnRightBreakpoint},
		keys(ModeRearrangement.Columns()))
	assert.Equal(t, []string{FieldAccession, ColumnMutatedGene, ColumnTranscriptID, ColumnExon,
		ColumnNucleotideChange, ColumnAminoAcidChange, ColumnVariantFrequency}, keys(ModeMutation.Columns()))
	assert.Equal(t, "转录本 ID", ModeMutation.Columns()[2].Label)

	cols := ModeMutation.Columns()
	cols[0].Label = "changed"
	assert.Equal(t, "检测号", ModeMutation.Columns()[0].Label)

	assert.Empty(t, Mode("other").Columns())
	assert.False(t, Mode("Basic").Valid())
	for _, m := range Modes() {
		assert.NotEmpty(t, m.Description())
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		et          ErrorType
		name        string
		recoverable bool
	}{
		{ErrorTypeAdapterFailure, "ADAPTER_FAILURE", false},
		{ErrorTypeSchemaMismatch, "SCHEMA_MISMATCH", true},
		{ErrorTypeFieldNotFound, "FIELD_NOT_FOUND", true},
		{ErrorTypeValidationFailure, "VALIDATION_FAILURE", true},
		{ErrorTypeOutputFailure, "OUTPUT_FAILURE", false},
		{ErrorTypeCancelled, "CANCELLED", false},
		{ErrorTypeUnknown, "UNKNOWN", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.et.String())
			assert.Equal(t, tt.recoverable, tt.et.IsRecoverable())
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("broken xref")
	err := WrapError(ErrorTypeAdapterFailure, "cannot read document", cause).WithFile("/tmp/a.pdf")

	assert.Equal(t, "[ADAPTER_FAILURE] cannot read document (/tmp/a.pdf): broken xref", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.Recoverable())

	wrapped := fmt.Errorf("extract: %w", err)
	assert.Equal(t, ErrorTypeAdapterFailure, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeAdapterFailure))
	assert.False(t, IsType(nil, ErrorTypeAdapterFailure))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))

	field := NewError(ErrorTypeFieldNotFound, "no match").WithField("age")
	assert.Equal(t, "[FIELD_NOT_FOUND] age: no match", field.Error())
}
