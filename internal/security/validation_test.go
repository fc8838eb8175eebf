package security

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https public", url: "https://example.com/wallpaper.png", wantErr: false},
		{name: "https with query", url: "https://cdn.example.com/img?id=42", wantErr: false},
		{name: "empty", url: "", wantErr: true},
		{name: "plain http", url: "http://example.com/a.png", wantErr: true},
		{name: "ftp", url: "ftp://example.com/a.png", wantErr: true},
		{name: "no host", url: "https:///a.png", wantErr: true},
		{name: "localhost", url: "https://localhost/a.png", wantErr: true},
		{name: "loopback v4", url: "https://127.0.0.1/a.png", wantErr: true},
		{name: "loopback v6", url: "https://[::1]/a.png", wantErr: true},
		{name: "private 10/8", url: "https://10.1.2.3/a.png", wantErr: true},
		{name: "private 172.16/12", url: "https://172.20.0.1/a.png", wantErr: true},
		{name: "public 172.32", url: "https://172.32.0.1/a.png", wantErr: false},
		{name: "private 192.168/16", url: "https://192.168.1.1/a.png", wantErr: true},
		{name: "link local", url: "https://169.254.169.254/latest", wantErr: true},
		{name: "unique local v6", url: "https://[fd00::1]/a.png", wantErr: true},
		{name: "unspecified", url: "https://0.0.0.0/a.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"https://example.com/a.png", true},
		{"http://example.com/a.png", true},
		{"/home/user/a.png", false},
		{"a.png", false},
	}

	for _, tt := range tests {
		if got := IsRemote(tt.path); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLimitedReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr bool
	}{
		{name: "under limit", input: "hello", limit: 10, wantErr: false},
		{name: "exactly limit", input: "hello", limit: 5, wantErr: false},
		{name: "over limit", input: "hello world", limit: 5, wantErr: true},
		{name: "empty input", input: "", limit: 0, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := io.ReadAll(NewLimitedReader(strings.NewReader(tt.input), tt.limit))
			if tt.wantErr {
				if !errors.Is(err, ErrLimitExceeded) {
					t.Errorf("ReadAll() error = %v, want ErrLimitExceeded", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(data) != tt.input {
				t.Errorf("ReadAll() = %q, want %q", data, tt.input)
			}
		})
	}
}
