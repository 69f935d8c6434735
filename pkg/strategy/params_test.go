package strategy

import (
	"testing"

	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

func TestParameterSet_Accessors(t *testing.T) {
	ps := ParameterSet{
		"fast":  fixed.FromInt(5, 0),
		"size":  fixed.MustFromString("1.5"),
		"short": fixed.One,
		"off":   fixed.Zero,
	}

	if got := ps.Int("fast", 10); got != 5 {
		t.Errorf("Int = %d; want 5", got)
	}
	if got := ps.Int("missing", 10); got != 10 {
		t.Errorf("Int default = %d; want 10", got)
	}
	if got := ps.Point("size", fixed.One); !got.Eq(fixed.MustFromString("1.5")) {
		t.Errorf("Point = %s; want 1.5", got)
	}
	if got := ps.Point("missing", fixed.One); !got.Eq(fixed.One) {
		t.Errorf("Point default = %s; want 1", got)
	}
	if !ps.Bool("short", false) {
		t.Error("Bool of 1 = false; want true")
	}
	if ps.Bool("off", true) {
		t.Error("Bool of 0 = true; want false")
	}
	if !ps.Bool("missing", true) {
		t.Error("Bool default not honoured")
	}
}

func TestParameterSet_Clone(t *testing.T) {
	original := ParameterSet{"fast": fixed.FromInt(5, 0)}
	clone := original.Clone()

	clone["fast"] = fixed.FromInt(9, 0)
	if !original["fast"].Eq(fixed.FromInt(5, 0)) {
		t.Error("mutating the clone must not touch the original")
	}
}

func TestApplyDefaults(t *testing.T) {
	specs := []ParamSpec{
		{Name: "fast", Type: ParamInt, Default: fixed.FromInt(10, 0)},
		{Name: "slow", Type: ParamInt, Default: fixed.FromInt(30, 0)},
	}

	out := ApplyDefaults(specs, ParameterSet{"fast": fixed.FromInt(7, 0)})

	if !out["fast"].Eq(fixed.FromInt(7, 0)) {
		t.Errorf("fast = %s; explicit value must win", out["fast"])
	}
	if !out["slow"].Eq(fixed.FromInt(30, 0)) {
		t.Errorf("slow = %s; want spec default 30", out["slow"])
	}
}

func TestValidateParams(t *testing.T) {
	specs := []ParamSpec{
		{Name: "fast", Type: ParamInt, Min: fixed.Two, Max: fixed.FromInt(100, 0)},
		{Name: "size", Type: ParamNumber},
	}

	tests := []struct {
		name    string
		params  ParameterSet
		wantErr bool
	}{
		{"valid", ParameterSet{"fast": fixed.FromInt(10, 0), "size": fixed.MustFromString("0.5")}, false},
		{"unknown name", ParameterSet{"bogus": fixed.One}, true},
		{"fractional int", ParameterSet{"fast": fixed.MustFromString("2.5")}, true},
		{"below min", ParameterSet{"fast": fixed.One}, true},
		{"above max", ParameterSet{"fast": fixed.FromInt(101, 0)}, true},
		{"unbounded number", ParameterSet{"size": fixed.FromInt(-5, 0)}, false},
		{"empty", ParameterSet{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParams(specs, tt.params)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
