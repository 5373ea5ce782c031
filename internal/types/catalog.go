package types

// RuntimeImage describes what a provider runtime ships: its base image
// and the system packages (name -> deb version) preinstalled in it.
// Manifest entries with native extensions are checked against this.
type RuntimeImage struct {
	BaseImage      string            `yaml:"base_image"`
	SystemPackages map[string]string `yaml:"system_packages,omitempty"`
	Deprecated     bool              `yaml:"deprecated,omitempty"`
}

// RuntimeCatalogFile is the top-level structure of a runtimes.yaml file.
// Multiple catalog files can be layered: embedded fleet entries first,
// then files in load order.  Later layers override earlier ones per
// runtime key.
type RuntimeCatalogFile struct {
	SchemaVersion string                  `yaml:"schema_version"`
	Runtimes      map[string]RuntimeImage `yaml:"runtimes"`
}

// VersionIndexFile caches known published versions per package so audits
// can run without network access.  Versions are stored pep440-sorted.
type VersionIndexFile struct {
	GeneratedAt string              `yaml:"generated_at,omitempty"`
	Index       string              `yaml:"index,omitempty"`
	Packages    map[string][]string `yaml:"packages"`
}
