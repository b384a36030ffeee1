package config

import (
	"testing"
	"time"
)

func TestEnvDefaults(t *testing.T) {
	t.Setenv("TETRESS_UNSET", "")

	if got := EnvString("TETRESS_UNSET", "out"); got != "out" {
		t.Errorf("EnvString = %q", got)
	}
	if got := EnvInt("TETRESS_UNSET", 4); got != 4 {
		t.Errorf("EnvInt = %d", got)
	}
	if got := EnvDuration("TETRESS_UNSET", 30*time.Millisecond); got != 30*time.Millisecond {
		t.Errorf("EnvDuration = %v", got)
	}
	if got := EnvBool("TETRESS_UNSET", true); !got {
		t.Errorf("EnvBool = %v", got)
	}
	if got := EnvFloat("TETRESS_UNSET", 1.4); got != 1.4 {
		t.Errorf("EnvFloat = %v", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TETRESS_OUT", "/tmp/x")
	t.Setenv("TETRESS_WORKERS", " 8 ")
	t.Setenv("TETRESS_SEED", "12345678901")
	t.Setenv("TETRESS_BUDGET", "250ms")
	t.Setenv("TETRESS_TUI", "yes")
	t.Setenv("TETRESS_C", "0.7")

	if got := EnvString("TETRESS_OUT", "out"); got != "/tmp/x" {
		t.Errorf("EnvString = %q", got)
	}
	if got := EnvInt("TETRESS_WORKERS", 1); got != 8 {
		t.Errorf("EnvInt = %d", got)
	}
	if got := EnvInt64("TETRESS_SEED", 0); got != 12345678901 {
		t.Errorf("EnvInt64 = %d", got)
	}
	if got := EnvDuration("TETRESS_BUDGET", 0); got != 250*time.Millisecond {
		t.Errorf("EnvDuration = %v", got)
	}
	if got := EnvBool("TETRESS_TUI", false); !got {
		t.Errorf("EnvBool = %v", got)
	}
	if got := EnvFloat("TETRESS_C", 1.4); got != 0.7 {
		t.Errorf("EnvFloat = %v", got)
	}
}

func TestEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("TETRESS_WORKERS", "many")
	t.Setenv("TETRESS_BUDGET", "soon")
	t.Setenv("TETRESS_TUI", "nope")

	if got := EnvInt("TETRESS_WORKERS", 2); got != 2 {
		t.Errorf("EnvInt = %d", got)
	}
	if got := EnvDuration("TETRESS_BUDGET", time.Second); got != time.Second {
		t.Errorf("EnvDuration = %v", got)
	}
	if got := EnvBool("TETRESS_TUI", true); got {
		t.Errorf("EnvBool should be false for %q", "nope")
	}
}
