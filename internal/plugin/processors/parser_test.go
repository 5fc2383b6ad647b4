package processors

import (
	"errors"
	"strings"
	"testing"

	"github.com/sliink/hopmon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Run("Parses the reference line", func(t *testing.T) {
		record, err := ParseLine("15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;1\n")
		require.NoError(t, err)

		assert.Equal(t, model.HopRecord{
			Date:        "15/03/2024",
			Time:        "10:30:00",
			Source:      "NodeA",
			Destination: "NodeB",
			Sequence:    "42",
			NextHop:     "NodeC",
			QtyHops:     "3",
			Kind:        "DATA",
			Retries:     1,
			RetriesText: "1",
		}, record)
	})

	t.Run("Keeps the retries token as received", func(t *testing.T) {
		record, err := ParseLine("15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;007")
		require.NoError(t, err)
		assert.Equal(t, 7, record.Retries)
		assert.Equal(t, "15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;007", record.String())
	})

	t.Run("Trims carriage returns and trailing whitespace", func(t *testing.T) {
		record, err := ParseLine("01/01/2025;00:00:01;A;B;1;C;2;ACK;0\r\n")
		require.NoError(t, err)
		assert.Equal(t, 0, record.Retries)
		assert.Equal(t, "ACK", record.Kind)
	})

	t.Run("Sequence does not need to be numeric", func(t *testing.T) {
		record, err := ParseLine("01/01/2025;00:00:01;A;B;seq-7f;C;2;ACK;4")
		require.NoError(t, err)
		assert.Equal(t, "seq-7f", record.Sequence)
	})

	t.Run("Empty payload tokens are accepted as empty identifiers", func(t *testing.T) {
		record, err := ParseLine("01/01/2025;00:00:01;A;;;;;;9")
		require.NoError(t, err)
		assert.Equal(t, "A", record.Source)
		assert.Equal(t, "", record.Destination)
		assert.Equal(t, "", record.Kind)
		assert.Equal(t, 9, record.Retries)
	})
}

func TestParseLineRejects(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   error
		reason string
	}{
		{"empty line", "", ErrMalformedHeader, "malformed_header"},
		{"whitespace only", "  \r\n", ErrMalformedHeader, "malformed_header"},
		{"garbage", "garbage;data", ErrMalformedHeader, "malformed_header"},
		{"short year", "15/03/24;10:30:00;A;B;1;C;3;DATA;1", ErrMalformedHeader, "malformed_header"},
		{"time without seconds", "15/03/2024;10:30;A;B;1;C;3;DATA;1", ErrMalformedHeader, "malformed_header"},
		{"prefix before date", "xx15/03/2024;10:30:00;A;B;1;C;3;DATA;1", ErrMalformedHeader, "malformed_header"},
		{"nothing after time", "15/03/2024;10:30:00;", ErrMalformedHeader, "malformed_header"},
		{"too few fields", "15/03/2024;10:30:00;A;B;1;C;3;DATA", ErrFieldCountMismatch, "field_count_mismatch"},
		{"too many fields", "15/03/2024;10:30:00;A;B;1;C;3;DATA;1;extra", ErrFieldCountMismatch, "field_count_mismatch"},
		{"trailing delimiter", "15/03/2024;10:30:00;A;B;1;C;3;DATA;1;", ErrFieldCountMismatch, "field_count_mismatch"},
		{"empty trailing retries", "15/03/2024;10:30:00;A;B;1;C;3;DATA;", ErrInvalidNumber, "invalid_number"},
		{"non-numeric retries", "15/03/2024;10:30:00;A;B;1;C;3;DATA;many", ErrInvalidNumber, "invalid_number"},
		{"negative retries", "15/03/2024;10:30:00;A;B;1;C;3;DATA;-1", ErrInvalidNumber, "invalid_number"},
		{"fractional retries", "15/03/2024;10:30:00;A;B;1;C;3;DATA;1.5", ErrInvalidNumber, "invalid_number"},
		{"overflowing retries", "15/03/2024;10:30:00;A;B;1;C;3;DATA;99999999999999999999999", ErrInvalidNumber, "invalid_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseLine(tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, model.HopRecord{}, record)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.reason, parseErr.Reason())
		})
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	lines := []string{
		"15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;1",
		"31/12/2023;23:59:59;gw-01;sensor 7;abc;gw-02;0;ROUTE_REQ;12",
		"01/01/2025;00:00:00;;;;;;;0",
		"01/01/2025;00:00:00;A;B;1;C;2;ACK;0042",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			first, err := ParseLine(line)
			require.NoError(t, err)

			assert.Equal(t, line, first.String())
			assert.Len(t, strings.Split(first.String(), model.Delimiter), model.FieldCount)

			second, err := ParseLine(first.String())
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := ParseLine("15/03/2024;10:30:00;A;B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field count mismatch")
	assert.Contains(t, err.Error(), "got 2")
}

func TestParserPlugin(t *testing.T) {
	parser := NewParser("hop_parser")

	t.Run("Reports identity and type", func(t *testing.T) {
		assert.Equal(t, "hop_parser", parser.ID())
		assert.Equal(t, model.ProcessorPluginType, parser.GetType())
		assert.True(t, parser.Validate())
	})

	t.Run("Lifecycle updates status", func(t *testing.T) {
		assert.True(t, parser.Initialize())
		assert.Equal(t, model.StatusInitialized, parser.GetStatus())
		assert.True(t, parser.Start())
		assert.Equal(t, model.StatusRunning, parser.GetStatus())
	})

	t.Run("Parse delegates to ParseLine", func(t *testing.T) {
		record, err := parser.Parse("15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;5")
		require.NoError(t, err)
		assert.Equal(t, 5, record.Retries)

		_, err = parser.Parse("garbage;data")
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})

	t.Run("Stop updates status", func(t *testing.T) {
		assert.True(t, parser.Stop())
		assert.Equal(t, model.StatusStopped, parser.GetStatus())
	})
}
