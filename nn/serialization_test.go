package nn

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestLRNConfigRoundTrip verifies the JSON wire format survives a round trip.
func TestLRNConfigRoundTrip(t *testing.T) {
	cfg := LRNConfig{Size: 5, Alpha: 1e-4, Beta: 0.75, K: 2, Region: NormAcrossChannels}

	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got LRNConfig
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch: expected %+v, got %+v", cfg, got)
	}
}

// TestLRNConfigRegionNames verifies the region travels as a stable string.
func TestLRNConfigRegionNames(t *testing.T) {
	b, err := json.Marshal(LRNConfig{Size: 3, Region: NormWithinChannel})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if raw["norm_region"] != "within_channel" {
		t.Errorf("expected region %q, got %v", "within_channel", raw["norm_region"])
	}
}

// TestLRNConfigBadRegion verifies unknown regions fail with the typed error.
func TestLRNConfigBadRegion(t *testing.T) {
	var cfg LRNConfig
	err := json.Unmarshal([]byte(`{"size":3,"norm_region":"diagonal"}`), &cfg)
	if !errors.Is(err, ErrUnknownNormRegion) {
		t.Errorf("expected ErrUnknownNormRegion, got %v", err)
	}
}
