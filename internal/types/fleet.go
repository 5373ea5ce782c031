package types

type Metadata struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Owners      []string `yaml:"owners"`
	Description string   `yaml:"description,omitempty"`
}

// DeployDefaults provides fleet-level defaults applied to every function
// whose spec leaves the field unset.  Embedding defaults in the fleet spec
// keeps per-function entries short and eliminates repetitive CLI flags.
type DeployDefaults struct {
	Branch       string `yaml:"branch,omitempty"`
	Runtime      string `yaml:"runtime,omitempty"`
	Region       string `yaml:"region,omitempty"`
	EntryPoint   string `yaml:"entry_point,omitempty"`
	TimeoutSec   int    `yaml:"timeout_sec,omitempty"`
	MaxInstances int    `yaml:"max_instances,omitempty"`
	MemoryMB     int    `yaml:"memory_mb,omitempty"`
	Output       string `yaml:"output,omitempty"`
	WorkflowDir  string `yaml:"workflow_dir,omitempty"`
}

// Trigger binds a function to its invocation source.  Type "pubsub"
// requires Topic; type "http" must leave Topic empty.
type Trigger struct {
	Type  TriggerType `yaml:"type"`
	Topic string      `yaml:"topic,omitempty"`
}

type SecretRef struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

type FunctionSpec struct {
	Name         string            `yaml:"name"`
	SourceDir    string            `yaml:"source_dir"`
	Runtime      string            `yaml:"runtime,omitempty"`
	EntryPoint   string            `yaml:"entry_point,omitempty"`
	Region       string            `yaml:"region,omitempty"`
	TimeoutSec   int               `yaml:"timeout_sec,omitempty"`
	MaxInstances int               `yaml:"max_instances,omitempty"`
	MemoryMB     int               `yaml:"memory_mb,omitempty"`
	Trigger      Trigger           `yaml:"trigger"`
	ExtraPaths   []string          `yaml:"extra_paths,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	Secrets      []SecretRef       `yaml:"secrets,omitempty"`
	Manifest     string            `yaml:"manifest,omitempty"`
}

type OverlayRef struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  string `yaml:"source"`
	Path    string `yaml:"path"`

	// Overlay holds an inline overlay definition when Source is "inline".
	// This lets small fleets embed an environment override directly
	// without a separate overlay file.
	Overlay *InlineOverlay `yaml:"overlay,omitempty"`
}

// InlineOverlay is the subset of FleetSpec fields that can be embedded
// directly in an OverlayRef.  It carries the same semantics as a
// standalone overlay spec but omits fields that are only meaningful at
// the fleet level (overlays, rollout, kind, metadata).
type InlineOverlay struct {
	Defaults    DeployDefaults       `yaml:"defaults"`
	Functions   []FunctionSpec       `yaml:"functions"`
	Resolutions []ManifestResolution `yaml:"resolutions,omitempty"`
}

// RolloutGroup assigns functions to a deployment wave by name pattern.
// Patterns: exact name, "prefix*", or "*".  Groups deploy in ascending
// Order; functions inside a group deploy in parallel up to MaxParallel.
type RolloutGroup struct {
	Name        string   `yaml:"name"`
	Matches     []string `yaml:"matches"`
	Order       int      `yaml:"order"`
	MaxParallel int      `yaml:"max_parallel,omitempty"`
}

type Rollout struct {
	Groups []RolloutGroup `yaml:"groups"`
}

// ManifestResolution records a reviewed decision for a dependency-manifest
// conflict: which version wins and why.
type ManifestResolution struct {
	Package    string `yaml:"package"`
	UseVersion string `yaml:"use_version"`
	Reason     string `yaml:"reason"`
	Owner      string `yaml:"owner"`
	ExpiresAt  string `yaml:"expires_at,omitempty"`
}

type Notify struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic,omitempty"`
	Project string `yaml:"project,omitempty"`
}

type FleetSpec struct {
	APIVersion  string               `yaml:"api_version"`
	Kind        SpecKind             `yaml:"kind"`
	Metadata    Metadata             `yaml:"metadata"`
	Defaults    DeployDefaults       `yaml:"defaults,omitempty"`
	Overlays    []OverlayRef         `yaml:"overlays,omitempty"`
	Functions   []FunctionSpec       `yaml:"functions"`
	Rollout     Rollout              `yaml:"rollout,omitempty"`
	Resolutions []ManifestResolution `yaml:"resolutions,omitempty"`
	Notify      Notify               `yaml:"notify,omitempty"`

	// Runtimes optionally embeds a runtime catalog layer.  When present,
	// these entries are loaded before any catalog files passed on the
	// command line, giving file-based catalogs higher precedence (they
	// override embedded entries per runtime).
	Runtimes map[string]RuntimeImage `yaml:"runtimes,omitempty"`
}
