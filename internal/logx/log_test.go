package logx_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
)

func TestConfigureLogLevel(t *testing.T) {
	logx.Configure("all")
	if zerolog.GlobalLevel() != zerolog.TraceLevel {
		t.Fatalf("expected trace level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("WARNING")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("none")
	if zerolog.GlobalLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("bogus")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", zerolog.GlobalLevel())
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"abc":                      "***",
		"gsk_12345":                "g*******5",
		"sk-proj-0123456789abcdef": "sk-********************f",
	}
	for in, want := range cases {
		if got := logx.Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q; want %q", in, got, want)
		}
	}
}
