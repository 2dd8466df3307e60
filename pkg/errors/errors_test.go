package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"source not found", New(ErrSourceNotFound, "Reviews.csv"), ExitSourceNotFound},
		{"source read", Newf(ErrSourceRead, "line %d", 4), ExitSourceRead},
		{"store", fmt.Errorf("creating index: %w", New(ErrStore, "locked")), ExitStore},
		{"row processing bare sentinel", fmt.Errorf("chunk 3: %w", ErrRowProcessing), ExitRowProcessing},
		{"config", ErrInvalidConfig, ExitInvalidConfig},
		{"unknown", errors.New("boom"), ExitUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapKeepsBothChains(t *testing.T) {
	err := Wrap(ErrSourceNotFound, fs.ErrNotExist, "Reviews.csv")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Error("expected ErrSourceNotFound in chain")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected fs.ErrNotExist in chain")
	}
	if err.ExitCode != ExitSourceNotFound {
		t.Errorf("ExitCode = %d, want %d", err.ExitCode, ExitSourceNotFound)
	}
}
