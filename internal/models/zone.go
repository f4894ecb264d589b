package models

// ZoneKind selects the device variant driving a zone.
type ZoneKind string

const (
	KindRelay  ZoneKind = "relay"  // GPIO-driven valve
	KindShelly ZoneKind = "shelly" // Wi-Fi switch reached over HTTP RPC
)

// Zone is one irrigation output as declared in configuration.
// The set of zones is fixed at process start.
type Zone struct {
	Key  string   `json:"key" mapstructure:"key"` // unique, e.g. "R1", "S1"
	Name string   `json:"name" mapstructure:"name"`
	Kind ZoneKind `json:"kind" mapstructure:"kind"`

	// relay parameters
	Pin int `json:"pin,omitempty" mapstructure:"pin"` // BCM pin number

	// shelly parameters
	Address    string  `json:"address,omitempty" mapstructure:"address"` // host or host:port
	RPCID      int     `json:"rpc_id,omitempty" mapstructure:"rpc_id"`
	TimeoutSec float64 `json:"timeout_sec,omitempty" mapstructure:"timeout_sec"`
}

// ZoneStatus is the zone plus its live on/off state, derived from the device.
type ZoneStatus struct {
	Key  string   `json:"key"`
	Name string   `json:"name"`
	Kind ZoneKind `json:"kind"`
	IsOn bool     `json:"is_on"`
}
