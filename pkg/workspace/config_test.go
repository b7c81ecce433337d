package workspace

import (
	"reflect"
	"testing"

	"github.com/cargows/cargows/pkg/cargo"
)

func TestConfigFeatureSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want cargo.FeatureSelection
	}{
		{
			name: "all features wins",
			cfg:  Config{AllFeatures: true, NoDefaultFeatures: true, Features: []string{"a"}},
			want: cargo.FeatureSelection{Mode: cargo.FeaturesAll},
		},
		{
			name: "no default wins over list",
			cfg:  Config{NoDefaultFeatures: true, Features: []string{"a"}},
			want: cargo.FeatureSelection{Mode: cargo.FeaturesNoDefault},
		},
		{
			name: "explicit list",
			cfg:  Config{Features: []string{"a", "b"}},
			want: cargo.FeatureSelection{Mode: cargo.FeaturesSome, Features: []string{"a", "b"}},
		},
		{
			name: "empty list sends nothing",
			cfg:  Config{Features: []string{}},
			want: cargo.FeatureSelection{Mode: cargo.FeaturesDefault},
		},
		{
			name: "zero value",
			want: cargo.FeatureSelection{Mode: cargo.FeaturesDefault},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.FeatureSelection(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FeatureSelection() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.AllFeatures {
		t.Error("DefaultConfig().AllFeatures = false, want true")
	}
	if cfg.LoadOutDirsFromCheck {
		t.Error("DefaultConfig().LoadOutDirsFromCheck = true, want false")
	}
	if got := cfg.FeatureSelection().Mode; got != cargo.FeaturesAll {
		t.Errorf("DefaultConfig().FeatureSelection().Mode = %v, want %v", got, cargo.FeaturesAll)
	}
}
