package credential

import (
	"errors"
	"fmt"
	"testing"

	"github.com/99designs/keyring"
)

func TestAPITokenPrecedence(t *testing.T) {
	stored := func(string) (string, error) { return "from-keyring", nil }
	missing := func(key string) (string, error) {
		return "", fmt.Errorf("getting credential %q: %w", key, keyring.ErrKeyNotFound)
	}
	broken := func(string) (string, error) { return "", errors.New("dbus unavailable") }

	env := func(v string) func(string) string {
		return func(string) string { return v }
	}

	tests := []struct {
		name    string
		getenv  func(string) string
		get     func(string) (string, error)
		want    string
		wantErr bool
	}{
		{"env wins", env("from-env"), stored, "from-env", false},
		{"keyring fallback", env(""), stored, "from-keyring", false},
		{"missing entry", env(""), missing, "", false},
		{"keyring error", env(""), broken, "", true},
		{"env skips broken keyring", env("from-env"), broken, "from-env", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apiToken(tt.getenv, tt.get)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
