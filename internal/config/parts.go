package config

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/garage/internal/model"
)

// DefaultParts is the tracked-parts table used when the config has no
// [[parts]] entries. Battery and wiper intervals are short on time because
// they age even when the car is parked.
var DefaultParts = []model.PartSpec{
	{Name: "機油", KMInterval: 5000, MonthInterval: 6},
	{Name: "變速箱油", KMInterval: 20000, MonthInterval: 24},
	{Name: "輪胎", KMInterval: 40000, MonthInterval: 36},
	{Name: "火星塞", KMInterval: 30000, MonthInterval: 24},
	{Name: "電瓶", KMInterval: 40000, MonthInterval: 24},
	{Name: "雨刷", KMInterval: 10000, MonthInterval: 12},
	{Name: "冷氣濾網", KMInterval: 10000, MonthInterval: 12},
	{Name: "空氣濾網", KMInterval: 20000, MonthInterval: 24},
	{Name: "後引擎腳", KMInterval: 80000, MonthInterval: 60},
}

// TrackedParts returns the configured parts, or DefaultParts when none are set.
// The returned slice is a copy.
func (c Config) TrackedParts() []model.PartSpec {
	src := c.Parts
	if len(src) == 0 {
		src = DefaultParts
	}
	out := make([]model.PartSpec, len(src))
	copy(out, src)
	return out
}

// ValidateParts checks that every part has a name and positive intervals,
// and that names are unique.
func ValidateParts(parts []model.PartSpec) error {
	seen := make(map[string]struct{}, len(parts))
	for i, p := range parts {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("parts[%d]: name is empty", i)
		}
		if p.KMInterval <= 0 {
			return fmt.Errorf("part %q: km_interval must be positive", name)
		}
		if p.MonthInterval <= 0 {
			return fmt.Errorf("part %q: month_interval must be positive", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("part %q is listed twice", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// LookupPart returns the spec for the named part.
func LookupPart(parts []model.PartSpec, name string) (model.PartSpec, bool) {
	for _, p := range parts {
		if p.Name == name {
			return p, true
		}
	}
	return model.PartSpec{}, false
}
