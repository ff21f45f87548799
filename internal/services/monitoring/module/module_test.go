package module

import (
	"testing"

	"queststat/internal/modkit"
	mmodule "queststat/internal/modkit/module"
	"queststat/internal/platform/config"
	"queststat/internal/platform/testkit"
	"queststat/internal/services/monitoring/domain"
)

func TestFromConfig(t *testing.T) {
	testkit.Serial(t)
	t.Setenv("QUESTSTAT_MONITORING_WORKERS", "3")
	t.Setenv("QUESTSTAT_MONITORING_PAGES_DIR", "/var/pages")

	o := FromConfig(config.New())
	if o.Workers != 3 || o.PagesDir != "/var/pages" || o.MaxPageBytes != 32<<20 {
		t.Fatalf("got %+v", o)
	}

	t.Setenv("QUESTSTAT_MONITORING_WORKERS", "1000")
	if got := FromConfig(config.New()).Workers; got != 4 {
		t.Fatalf("out of range workers should fall back to 4, got %d", got)
	}
}

func TestNew_Ports(t *testing.T) {
	m := New(modkit.Deps{}, Options{Workers: 2})
	if m.Name() != "monitoring" {
		t.Fatalf("name %q", m.Name())
	}
	if _, ok := mmodule.PortsOf[domain.LoaderPort](m); !ok {
		t.Fatal("loader port missing")
	}
	if _, ok := mmodule.PortsOf[domain.AnalyzerPort](m); !ok {
		t.Fatal("analyzer port missing")
	}
}
