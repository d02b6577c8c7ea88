package app

import (
	"reflect"
	"testing"
	"time"
)

func TestEnvString(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_STR", "  hello  ")
	if got := EnvString("GEOTRACK_TEST_STR", "def"); got != "hello" {
		t.Fatalf("EnvString=%q want hello", got)
	}
	if got := EnvString("GEOTRACK_TEST_STR_MISSING", "def"); got != "def" {
		t.Fatalf("EnvString default=%q want def", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_BOOL", "true")
	if !EnvBool("GEOTRACK_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("GEOTRACK_TEST_BOOL", "nope")
	if !EnvBool("GEOTRACK_TEST_BOOL", true) {
		t.Fatalf("invalid value should keep default")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_INT", "42")
	if got := EnvInt("GEOTRACK_TEST_INT", 7); got != 42 {
		t.Fatalf("EnvInt=%d want 42", got)
	}
	t.Setenv("GEOTRACK_TEST_INT", "-3")
	if got := EnvInt("GEOTRACK_TEST_INT", 7); got != 7 {
		t.Fatalf("non-positive should keep default, got %d", got)
	}
}

func TestEnvInt32(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_INT32", "0")
	if got := EnvInt32("GEOTRACK_TEST_INT32", 5); got != 0 {
		t.Fatalf("zero is a valid int32 value, got %d", got)
	}
	t.Setenv("GEOTRACK_TEST_INT32", "-1")
	if got := EnvInt32("GEOTRACK_TEST_INT32", 5); got != 5 {
		t.Fatalf("negative should keep default, got %d", got)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_DUR", "250ms")
	if got := EnvDuration("GEOTRACK_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("EnvDuration=%v want 250ms", got)
	}
	t.Setenv("GEOTRACK_TEST_DUR", "soon")
	if got := EnvDuration("GEOTRACK_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("invalid duration should keep default, got %v", got)
	}
}

func TestEnvCSV(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_CSV", " a , b ,, c ")
	got := EnvCSV("GEOTRACK_TEST_CSV", []string{"def"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("EnvCSV=%v", got)
	}
	t.Setenv("GEOTRACK_TEST_CSV", " , ,")
	got = EnvCSV("GEOTRACK_TEST_CSV", []string{"def"})
	if !reflect.DeepEqual(got, []string{"def"}) {
		t.Fatalf("blank CSV should keep default, got %v", got)
	}
}
