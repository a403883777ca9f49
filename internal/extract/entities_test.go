package extract

import (
	"reflect"
	"testing"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"leading article stripped",
			"The Roman Empire fell in 476. Historians cite Edward Gibbon.",
			[]string{"Edward Gibbon", "Roman Empire"},
		},
		{
			"leading preposition stripped",
			"In New York City, the United Nations met.",
			[]string{"New York City", "United Nations"},
		},
		{
			"lone sentence-initial word ignored",
			"Paris is large. Critics say it is not.",
			[]string{},
		},
		{
			"deduplicated",
			"He met Ada Lovelace. Ada Lovelace wrote notes.",
			[]string{"Ada Lovelace"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractEntities(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
