package nn

import (
	"encoding/json"
	"fmt"
)

// lrnConfigJSON is the wire form of LRNConfig. The region travels as a
// string so saved configs stay readable and stable across enum reordering.
type lrnConfigJSON struct {
	Size   int     `json:"size"`
	Alpha  float64 `json:"alpha"`
	Beta   float64 `json:"beta"`
	K      float64 `json:"k"`
	Region string  `json:"norm_region"`
}

// ParseNormRegion maps a serialized region name back to its enum value.
func ParseNormRegion(s string) (NormRegion, error) {
	switch s {
	case "across_channels":
		return NormAcrossChannels, nil
	case "within_channel":
		return NormWithinChannel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNormRegion, s)
	}
}

func (c LRNConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(lrnConfigJSON{
		Size:   c.Size,
		Alpha:  c.Alpha,
		Beta:   c.Beta,
		K:      c.K,
		Region: c.Region.String(),
	})
}

func (c *LRNConfig) UnmarshalJSON(b []byte) error {
	var raw lrnConfigJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	region, err := ParseNormRegion(raw.Region)
	if err != nil {
		return err
	}
	c.Size = raw.Size
	c.Alpha = raw.Alpha
	c.Beta = raw.Beta
	c.K = raw.K
	c.Region = region
	return nil
}
