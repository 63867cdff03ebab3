package store

import "testing"

func TestKey_Namespacing(t *testing.T) {
	if got := Key("stats"); got != "eventcheck:stats" {
		t.Errorf("Key(stats) = %q", got)
	}
	if got := Key("scans"); got != "eventcheck:scans" {
		t.Errorf("Key(scans) = %q", got)
	}
}
