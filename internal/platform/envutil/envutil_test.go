package envutil

import (
	"testing"
	"time"
)

func TestBool(t *testing.T) {
	t.Setenv("FLAG_X", "off")
	if Bool("FLAG_X", true) {
		t.Fatalf("Bool: want=false got=true")
	}
	t.Setenv("FLAG_X", "garbage")
	if !Bool("FLAG_X", true) {
		t.Fatalf("Bool: unparsable value should fall back to default")
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("TTL_X", "90")
	if got := Seconds("TTL_X", time.Minute); got != 90*time.Second {
		t.Fatalf("Seconds: want=%s got=%s", 90*time.Second, got)
	}
	t.Setenv("TTL_X", "-1")
	if got := Seconds("TTL_X", time.Minute); got != time.Minute {
		t.Fatalf("Seconds: negative should fall back, got=%s", got)
	}
}

func TestCSV(t *testing.T) {
	t.Setenv("ORIGINS_X", " http://a , ,http://b ")
	got := CSV("ORIGINS_X", nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("CSV: unexpected %v", got)
	}
	t.Setenv("ORIGINS_X", "")
	if got := CSV("ORIGINS_X", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("CSV: default not returned, got=%v", got)
	}
}
