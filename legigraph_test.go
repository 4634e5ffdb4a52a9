package legigraph

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/legigraph/parser"
)

func TestResolveDBPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit path wins",
			cfg:  Config{DBPath: "/tmp/custom.db", DBName: "ignored", StorageDir: "local"},
			want: "/tmp/custom.db",
		},
		{
			name: "local storage",
			cfg:  Config{DBName: "gazette", StorageDir: "local"},
			want: "gazette.db",
		},
		{
			name: "cwd alias",
			cfg:  Config{DBName: "gazette", StorageDir: "cwd"},
			want: "gazette.db",
		},
		{
			name: "default name",
			cfg:  Config{StorageDir: "local"},
			want: "legigraph.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.resolveDBPath(); got != tt.want {
				t.Errorf("resolveDBPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDBPathHome(t *testing.T) {
	cfg := Config{DBName: "gazette"}
	got := cfg.resolveDBPath()
	if !strings.Contains(got, ".legigraph") {
		t.Errorf("resolveDBPath() = %q, want path under .legigraph", got)
	}
	if filepath.Base(got) != "gazette.db" {
		t.Errorf("resolveDBPath() = %q, want basename gazette.db", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DBName != "legigraph" {
		t.Errorf("DBName = %q, want legigraph", cfg.DBName)
	}
	if cfg.VectorDim != 256 {
		t.Errorf("VectorDim = %d, want 256", cfg.VectorDim)
	}
	if cfg.WeightVector != 1.0 || cfg.WeightFTS != 1.0 {
		t.Errorf("weights = %v/%v, want 1.0/1.0", cfg.WeightVector, cfg.WeightFTS)
	}
}

func TestInstrumentIdentity(t *testing.T) {
	tests := []struct {
		name       string
		sections   []parser.Section
		wantType   string
		wantNumber string
	}{
		{
			name: "executive decree",
			sections: []parser.Section{
				{Heading: "Décret exécutif n° 21-112 du 25 mars 2021 fixant les modalités de conservation des archives", Type: "instrument"},
			},
			wantType:   "décret exécutif",
			wantNumber: "21-112",
		},
		{
			name: "law",
			sections: []parser.Section{
				{Heading: "Loi n° 18-05 du 10 mai 2018 relative au commerce électronique", Type: "instrument"},
			},
			wantType:   "loi",
			wantNumber: "18-05",
		},
		{
			name: "interministerial order",
			sections: []parser.Section{
				{Heading: "Arrêté interministériel n° 95-12 du 5 mars 1995", Type: "instrument"},
			},
			wantType:   "arrêté interministériel",
			wantNumber: "95-12",
		},
		{
			name: "first instrument heading wins",
			sections: []parser.Section{
				{Heading: "TITRE I", Type: "section"},
				{Heading: "Ordonnance n° 66-156 du 8 juin 1966 portant code pénal", Type: "instrument"},
				{Heading: "Loi n° 84-16 du 30 juin 1984", Type: "instrument"},
			},
			wantType:   "ordonnance",
			wantNumber: "66-156",
		},
		{
			name: "no instrument heading",
			sections: []parser.Section{
				{Heading: "CHAPITRE II", Type: "section", Content: "Des modalités."},
			},
			wantType:   "",
			wantNumber: "",
		},
		{
			name:       "empty document",
			sections:   nil,
			wantType:   "",
			wantNumber: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docType, docNumber := instrumentIdentity(&parser.ParseResult{Sections: tt.sections})
			if docType != tt.wantType || docNumber != tt.wantNumber {
				t.Errorf("instrumentIdentity() = (%q, %q), want (%q, %q)",
					docType, docNumber, tt.wantType, tt.wantNumber)
			}
		})
	}
}
