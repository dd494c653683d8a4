package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty driver returns ErrDriverEmpty",
			config:  Config{Driver: "", DataDir: "/tmp/data"},
			wantErr: ErrDriverEmpty,
		},
		{
			name:    "unknown driver returns ErrDriverUnknown",
			config:  Config{Driver: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrDriverUnknown,
		},
		{
			name:    "valid modernc config",
			config:  Config{Driver: DriverModernc, DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "valid mattn config",
			config:  Config{Driver: DriverMattn, DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "empty DataDir is valid at config level",
			config:  Config{Driver: DriverModernc, DataDir: ""},
			wantErr: nil,
		},
		{
			name:    "journal mode is case insensitive",
			config:  Config{Driver: DriverModernc, JournalMode: "wal"},
			wantErr: nil,
		},
		{
			name:    "unknown journal mode",
			config:  Config{Driver: DriverModernc, JournalMode: "MEMORYISH"},
			wantErr: ErrJournalModeUnknown,
		},
		{
			name:    "negative busy timeout",
			config:  Config{Driver: DriverModernc, BusyTimeoutMS: -1},
			wantErr: ErrBusyTimeoutInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	if got := (Config{}).WithDefaults().Driver; got != DriverModernc {
		t.Errorf("WithDefaults().Driver = %q, want %q", got, DriverModernc)
	}
	if got := (Config{Driver: DriverMattn}).WithDefaults().Driver; got != DriverMattn {
		t.Errorf("WithDefaults() replaced explicit driver, got %q", got)
	}
}
