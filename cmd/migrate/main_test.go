package main

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    command
		wantErr bool
	}{
		{"up", []string{"up"}, command{name: "up"}, false},
		{"down", []string{"down"}, command{name: "down"}, false},
		{"version", []string{"version"}, command{name: "version"}, false},
		{"steps back", []string{"steps", "-1"}, command{name: "steps", n: -1}, false},
		{"force", []string{"force", "0"}, command{name: "force"}, false},
		{"no command", nil, command{}, true},
		{"unknown", []string{"redo"}, command{}, true},
		{"steps without count", []string{"steps"}, command{}, true},
		{"zero steps", []string{"steps", "0"}, command{}, true},
		{"bad count", []string{"force", "latest"}, command{}, true},
		{"extra argument", []string{"up", "2"}, command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommand(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseCommand(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestResolveDSN(t *testing.T) {
	t.Setenv(envDSN, "postgres://env@db/pdfdesk")

	if got, _ := resolveDSN("postgres://flag@db/pdfdesk"); got != "postgres://flag@db/pdfdesk" {
		t.Errorf("flag value = %s", got)
	}
	if got, _ := resolveDSN(""); got != "postgres://env@db/pdfdesk" {
		t.Errorf("env value = %s", got)
	}
}

func TestDriverURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/pdfdesk?sslmode=disable": "pgx5://u:p@db:5432/pdfdesk?sslmode=disable",
		"postgresql://db/pdfdesk":                        "pgx5://db/pdfdesk",
		"pgx5://db/pdfdesk":                              "pgx5://db/pdfdesk",
	}
	for in, want := range tests {
		if got := driverURL(in); got != want {
			t.Errorf("driverURL(%q) = %q, want %q", in, got, want)
		}
	}
}
