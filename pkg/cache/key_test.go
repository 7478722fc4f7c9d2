package cache

import (
	"testing"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		id   catalog.Identifier
		want string
	}{
		{
			name: "isbn",
			id:   "9781838823818",
			want: "catalog:probe:9781838823818",
		},
		{
			name: "surrounding whitespace trimmed",
			id:   " 9781789615869 ",
			want: "catalog:probe:9781789615869",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.id); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if Key("A") != Key("A") {
			t.Fatal("Key() is not deterministic")
		}
	}
}
