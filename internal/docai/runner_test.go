package docai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "header plus data rows",
			content: "Field,Value,Additional Information\nForename,Jane,\nSurname,Doe,",
			want:    true,
		},
		{
			name:    "windows line endings",
			content: "Field,Value,Additional Information\r\nForename,Jane,\r\n",
			want:    true,
		},
		{
			name:    "surrounding whitespace is tolerated",
			content: "\nField,Value,Additional Information\nForename,Jane,\n\n",
			want:    true,
		},
		{
			name:    "empty content",
			content: "",
			want:    false,
		},
		{
			name:    "header only",
			content: "Field,Value,Additional Information",
			want:    false,
		},
		{
			name:    "wrong header",
			content: "Name,Value\nForename,Jane",
			want:    false,
		},
		{
			name:    "row with too many columns",
			content: "Field,Value,Additional Information\nForename,Jane,extra,overflow",
			want:    false,
		},
		{
			name:    "rows with trailing empty fields",
			content: "Field,Value,Additional Information\nGP Practice,,\nNHS Number,485 777 3456,",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCSV(tt.content))
		})
	}
}
