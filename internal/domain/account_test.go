package domain

import (
	"errors"
	"testing"
)

func TestNewAccount(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want Account
	}{
		{
			name: "basic",
			row:  Row{"Smith", "Jane", "jsmith", "12345"},
			want: Account{Name: "Jane Smith", Username: "jsmith", Email: "jsmith@example.edu", Password: "jsmith12345"},
		},
		{
			name: "trailing fields ignored",
			row:  Row{"Doe", "John", "jdoe", "67890", "Section 2", "ignored"},
			want: Account{Name: "John Doe", Username: "jdoe", Email: "jdoe@example.edu", Password: "jdoe67890"},
		},
		{
			name: "empty fields kept verbatim",
			row:  Row{"", "", "x", ""},
			want: Account{Name: " ", Username: "x", Email: "x@example.edu", Password: "x"},
		},
		{
			name: "embedded comma in name",
			row:  Row{"O'Brien, Jr.", "Pat", "pobrien", "1"},
			want: Account{Name: "Pat O'Brien, Jr.", Username: "pobrien", Email: "pobrien@example.edu", Password: "pobrien1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAccount(tt.row, "@example.edu")
			if err != nil {
				t.Fatalf("NewAccount: %v", err)
			}
			if got != tt.want {
				t.Fatalf("NewAccount = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewAccountShortRow(t *testing.T) {
	for _, row := range []Row{nil, {"Smith"}, {"Smith", "Jane", "jsmith"}} {
		_, err := NewAccount(row, "@example.edu")
		if !errors.Is(err, ErrMapping) {
			t.Fatalf("NewAccount(%q) error = %v, want ErrMapping", row, err)
		}
	}
}

func TestRowErrorUnwraps(t *testing.T) {
	err := error(&RowError{Line: 7, Err: ErrFormat})
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("errors.Is(%v, ErrFormat) = false", err)
	}
	if got, want := err.Error(), "roster line 7: malformed roster row"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
