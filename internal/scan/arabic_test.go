package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       int
	}{
		{
			name:       "unit word",
			transcript: "خمسة",
			want:       5,
		},
		{
			name:       "tens word",
			transcript: "ثلاثين",
			want:       30,
		},
		{
			name:       "one hundred",
			transcript: "مائة",
			want:       100,
		},
		{
			name:       "digits embedded in sentence",
			transcript: "125 قطعة",
			want:       125,
		},
		{
			name:       "digits win over number words",
			transcript: "خمسة يعني 12",
			want:       12,
		},
		{
			name:       "word inside longer utterance",
			transcript: "الكمية سبعة من فضلك",
			want:       7,
		},
		{
			name:       "no quantity present",
			transcript: "مرحبا",
			want:       0,
		},
		{
			name:       "zero word",
			transcript: "صفر",
			want:       0,
		},
		{
			name:       "empty transcript",
			transcript: "",
			want:       0,
		},
		{
			name:       "latin digits only run",
			transcript: "اضف 40 حبة",
			want:       40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.transcript))
		})
	}
}
