// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// NewSpinner Tests
// =============================================================================

func TestNewSpinner_ReturnsNonNil(t *testing.T) {
	spin := NewSpinner("Loading...")
	if spin == nil {
		t.Fatal("NewSpinner returned nil")
	}
}

func TestNewSpinner_SetsMessage(t *testing.T) {
	spin := NewSpinner("Encoding corpus")
	if spin.message != "Encoding corpus" {
		t.Errorf("expected message 'Encoding corpus', got %q", spin.message)
	}
}

func TestNewSpinner_DefaultsToDotsType(t *testing.T) {
	spin := NewSpinner("Loading...")
	if spin.spinType != SpinnerDots {
		t.Errorf("expected SpinnerDots, got %v", spin.spinType)
	}
}

func TestNewSpinner_InitializesChannels(t *testing.T) {
	spin := NewSpinner("Loading...")
	if spin.stop == nil {
		t.Error("stop channel should be initialized")
	}
	if spin.done == nil {
		t.Error("done channel should be initialized")
	}
}

// =============================================================================
// WithType Tests
// =============================================================================

func TestSpinner_WithType_Compass(t *testing.T) {
	spin := NewSpinner("Loading...").WithType(SpinnerCompass)
	if spin.spinType != SpinnerCompass {
		t.Errorf("expected SpinnerCompass, got %v", spin.spinType)
	}
}

func TestSpinner_WithType_Chaining(t *testing.T) {
	spin := NewSpinner("Loading...").WithType(SpinnerCompass)
	if spin == nil {
		t.Error("WithType should return the spinner for chaining")
	}
}

// =============================================================================
// Start/Stop Tests (Machine Mode)
// =============================================================================

func TestSpinner_Start_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Scoring entries...")
	output := captureStdout(func() {
		spin.Start()
	})

	if output != "PROGRESS: Scoring entries...\n" {
		t.Errorf("expected 'PROGRESS: Scoring entries...', got %q", output)
	}
}

func TestSpinner_Stop_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Scoring entries...")
	spin.Start()
	spin.Stop() // Should not panic or hang
}

func TestSpinner_Start_AlreadyRunning(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Scoring entries...")
	spin.Start()
	spin.Start() // Second start should be no-op
	spin.Stop()
}

func TestSpinner_Stop_NotRunning(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	spin := NewSpinner("Scoring entries...")
	spin.Stop() // Should not panic when not running
}

// =============================================================================
// Start/Stop Tests (Full Mode - Brief)
// =============================================================================

func TestSpinner_StartStop_FullMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	spin := NewSpinner("Scoring entries...")

	_ = captureStdout(func() {
		spin.Start()
		// Give it a moment to start animation
		time.Sleep(100 * time.Millisecond)
		spin.Stop()
	})
}

// =============================================================================
// UpdateMessage Tests
// =============================================================================

func TestSpinner_UpdateMessage(t *testing.T) {
	spin := NewSpinner("Initial")
	spin.UpdateMessage("Updated")
	if spin.message != "Updated" {
		t.Errorf("expected message 'Updated', got %q", spin.message)
	}
}

// =============================================================================
// WithSpinner Tests
// =============================================================================

func TestWithSpinner_Success(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	called := false
	var err error
	_ = captureStdout(func() {
		err = WithSpinner("Loading dataset", func() error {
			called = true
			return nil
		})
	})

	if !called {
		t.Error("function was not called")
	}
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWithSpinner_Error(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	wantErr := errors.New("encoder unavailable")
	var err error
	_ = captureStdout(func() {
		_ = captureStderr(func() {
			err = WithSpinner("Encoding corpus", func() error {
				return wantErr
			})
		})
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped %v, got %v", wantErr, err)
	}
}

// =============================================================================
// ProgressSpinner Tests
// =============================================================================

func TestNewProgressSpinner(t *testing.T) {
	p := NewProgressSpinner("Scoring", 10)
	if p == nil {
		t.Fatal("NewProgressSpinner returned nil")
	}
	if p.total != 10 {
		t.Errorf("expected total 10, got %d", p.total)
	}
	if p.current != 0 {
		t.Errorf("expected current 0, got %d", p.current)
	}
}

func TestProgressSpinner_Increment(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	p := NewProgressSpinner("Scoring", 3)
	p.Increment()
	p.Increment()

	if p.current != 2 {
		t.Errorf("expected current 2, got %d", p.current)
	}
	if p.message != "Scoring [2/3]" {
		t.Errorf("expected 'Scoring [2/3]', got %q", p.message)
	}
	if strings.Count(p.message, "[") != 1 {
		t.Errorf("message should carry exactly one progress suffix: %q", p.message)
	}
}

func TestProgressSpinner_SetProgress(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	p := NewProgressSpinner("Scoring", 100)
	p.SetProgress(42)

	if p.current != 42 {
		t.Errorf("expected current 42, got %d", p.current)
	}
	if p.message != "Scoring [42/100]" {
		t.Errorf("expected 'Scoring [42/100]', got %q", p.message)
	}
}
