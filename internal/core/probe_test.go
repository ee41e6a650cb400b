package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
	"enginectl/util"
)

func TestProbeMode_ListsOptions(t *testing.T) {
	e := uciEngine()
	cfg := testEngineConfig()
	cfg.Options = []engine.OptionValue{{Name: "Hash", Value: "128"}}
	out := &lockedBuffer{}
	mode := &ProbeMode{
		Manager:      testManager(t, cfg, e),
		ReadyTimeout: 2 * time.Second,
		Logger:       util.NopLogger(),
		Stdout:       out,
	}

	if err := runWithTimeout(t, mode); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{
		"engine    FakeFish 1.0",
		"protocol  uci",
		"options   2",
		`Hash (spin) 1..1024 = "128"`,
		"Ponder (check)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !e.got("quit") {
		t.Error("engine was not asked to quit")
	}
}

func TestProbeMode_HandshakeTimeout(t *testing.T) {
	e := uciEngine()
	e.replies["uci"] = []string{"id name Mute"}
	mode := &ProbeMode{
		Manager:      testManager(t, testEngineConfig(), e),
		ReadyTimeout: 100 * time.Millisecond,
		Logger:       util.NopLogger(),
		Stdout:       &lockedBuffer{},
	}

	err := runWithTimeout(t, mode)
	if !errors.Is(err, ecerr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestProbeMode_EngineHangsUp(t *testing.T) {
	e := uciEngine()
	e.hangUpOn = "uci"
	mode := &ProbeMode{
		Manager:      testManager(t, testEngineConfig(), e),
		ReadyTimeout: 2 * time.Second,
		Logger:       util.NopLogger(),
		Stdout:       &lockedBuffer{},
	}

	err := runWithTimeout(t, mode)
	if !errors.Is(err, ecerr.ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}
