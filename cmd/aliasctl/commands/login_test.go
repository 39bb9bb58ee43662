package commands

import "testing"

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://localhost:8080", want: "http://localhost:8080"},
		{in: "localhost:8080", want: "http://localhost:8080"},
		{in: "https://go.example/", want: "https://go.example/"},
		{in: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeServerURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeServerURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAliasListRows(t *testing.T) {
	l := aliasList{{From: "docs", To: "https://example.com"}}
	rows := l.Rows()
	if len(rows) != 1 || rows[0][0] != "docs" || rows[0][2] != "-" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if len(l.Headers()) != 3 {
		t.Errorf("unexpected headers: %v", l.Headers())
	}
}
