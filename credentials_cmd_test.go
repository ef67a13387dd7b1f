package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/notereader/internal/settings"
)

func TestUpdateCredentials(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		opts       credentialsOptions
		wantKey    string
		wantSecret string
		wantRegion string
		wantErr    bool
	}{
		{
			name:       "prompted",
			input:      "AKIDPROMPT\nprompted-secret\n",
			wantKey:    "AKIDPROMPT",
			wantSecret: "prompted-secret",
			wantRegion: "us-west-2",
		},
		{
			name:       "flags",
			opts:       credentialsOptions{accessKeyID: "AKIDFLAG", secretAccessKey: "flag-secret", region: "eu-west-1"},
			wantKey:    "AKIDFLAG",
			wantSecret: "flag-secret",
			wantRegion: "eu-west-1",
		},
		{
			name:       "secret prompted",
			input:      "  spaced-secret  \n",
			opts:       credentialsOptions{accessKeyID: "AKIDFLAG"},
			wantKey:    "AKIDFLAG",
			wantSecret: "spaced-secret",
			wantRegion: "us-west-2",
		},
		{
			name:    "missing secret",
			input:   "AKIDPROMPT\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "settings.yml")
			seed := &settings.Settings{Path: "/notes", AWS: settings.AWS{Region: "us-west-2"}}
			if err := seed.Save(file); err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			err := updateCredentials(strings.NewReader(tt.input), &out, file, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("updateCredentials() error = %v", err)
			}

			st, err := settings.Load(file)
			if err != nil {
				t.Fatal(err)
			}
			want := settings.AWS{AccessKeyID: tt.wantKey, SecretAccessKey: tt.wantSecret, Region: tt.wantRegion}
			if st.AWS != want {
				t.Errorf("stored AWS = %+v, want %+v", st.AWS, want)
			}
			if st.Path != "/notes" {
				t.Errorf("notes path changed to %q", st.Path)
			}
			if !strings.Contains(out.String(), "Wrote credentials to:") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestUpdateCredentialsReset(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yml")
	seed := &settings.Settings{
		Path: "/notes",
		AWS:  settings.AWS{AccessKeyID: "AKID", SecretAccessKey: "secret", Region: "eu-west-1"},
	}
	if err := seed.Save(file); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := updateCredentials(strings.NewReader(""), &out, file, credentialsOptions{reset: true}); err != nil {
		t.Fatalf("updateCredentials() error = %v", err)
	}

	st, err := settings.Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if st.Valid() || st.AWS.Region != "" {
		t.Errorf("credentials not removed: %+v", st.AWS)
	}
	if st.Path != "/notes" {
		t.Errorf("notes path changed to %q", st.Path)
	}
}
