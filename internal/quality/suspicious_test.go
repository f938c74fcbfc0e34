package quality

import (
	"strings"
	"testing"
)

func TestCheckSuspicious_ScriptTag(t *testing.T) {
	_, bad := CheckSuspicious("look <SCRIPT>alert(1)</script> here")
	if !bad {
		t.Error("Expected rejection for a script tag, any case.")
	}
}

func TestCheckSuspicious_JavascriptURL(t *testing.T) {
	_, bad := CheckSuspicious("click javascript:doEvil()")
	if !bad {
		t.Error("Expected rejection for a javascript: URL.")
	}
}

func TestCheckSuspicious_EventHandler(t *testing.T) {
	_, bad := CheckSuspicious(`<img src=x onerror=alert(1)>`)
	if !bad {
		t.Error("Expected rejection for an onerror handler.")
	}
}

func TestCheckSuspicious_RepetitionRun(t *testing.T) {
	_, bad := CheckSuspicious("padding " + strings.Repeat("x", 101) + " padding")
	if !bad {
		t.Error("Expected rejection for a run of 101 identical characters.")
	}

	_, bad = CheckSuspicious(strings.Repeat("x", 100))
	if bad {
		t.Error("Expected exactly 100 repeated characters to pass.")
	}
}

func TestCheckSuspicious_CleanTextPasses(t *testing.T) {
	reason, bad := CheckSuspicious("An ordinary description of a mountain lake at sunrise.")
	if bad {
		t.Errorf("Expected clean text to pass. Got reason: %s", reason)
	}
}
