package catalog

import (
	"strings"
	"testing"
)

func TestProbeURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		template string
		id       Identifier
		want     string
		wantErr  bool
	}{
		{
			name:     "default catalog",
			baseURL:  DefaultBaseURL,
			template: DefaultPathTemplate,
			id:       "9781838823818",
			want:     "https://static.packt-cdn.com/products/9781838823818/summary",
		},
		{
			name:     "trailing slash on base",
			baseURL:  "http://127.0.0.1:8080/",
			template: DefaultPathTemplate,
			id:       "42",
			want:     "http://127.0.0.1:8080/products/42/summary",
		},
		{
			name:     "identifier is path escaped",
			baseURL:  DefaultBaseURL,
			template: DefaultPathTemplate,
			id:       "a b/c",
			want:     "https://static.packt-cdn.com/products/a%20b%2Fc/summary",
		},
		{
			name:     "empty identifier",
			baseURL:  DefaultBaseURL,
			template: DefaultPathTemplate,
			id:       "",
			wantErr:  true,
		},
		{
			name:     "template without placeholder",
			baseURL:  DefaultBaseURL,
			template: "/products/summary",
			id:       "1",
			wantErr:  true,
		},
		{
			name:     "unsupported scheme",
			baseURL:  "ftp://example.com",
			template: DefaultPathTemplate,
			id:       "1",
			wantErr:  true,
		},
		{
			name:     "missing host",
			baseURL:  "https://",
			template: DefaultPathTemplate,
			id:       "1",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProbeURL(tt.baseURL, tt.template, tt.id)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ProbeURL() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ProbeURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ProbeURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	ids := Identifiers("A", "B")
	if len(ids) != 2 || ids[0] != "A" || ids[1] != "B" {
		t.Errorf("Identifiers() = %v", ids)
	}
}

func TestReadIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Identifier
	}{
		{
			name:  "one per line",
			input: "9781838823818\n9781789615869\n",
			want:  Identifiers("9781838823818", "9781789615869"),
		},
		{
			name:  "comma separated",
			input: "A, B,C\nD",
			want:  Identifiers("A", "B", "C", "D"),
		},
		{
			name:  "comments and blanks skipped",
			input: "# isbn list\nA\n\n ,B,\n",
			want:  Identifiers("A", "B"),
		},
		{
			name:  "duplicates kept",
			input: "A\nA\n",
			want:  Identifiers("A", "A"),
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadIdentifiers(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadIdentifiers() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ReadIdentifiers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ReadIdentifiers()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadIdentifiers_MalformedQuote(t *testing.T) {
	_, err := ReadIdentifiers(strings.NewReader("\"unterminated\n"))
	if err == nil {
		t.Error("Expected error for malformed input")
	}
}
