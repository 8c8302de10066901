package domain

// Report summarizes a resolved workspace.
type Report struct {
	HoistingRate      float64     `json:"hoisting_rate"`
	HoistedInstances  int         `json:"hoisted_instances"`
	ExternalInstances int         `json:"external_instances"`
	SharedCopies      int         `json:"shared_copies"`
	NestedCopies      int         `json:"nested_copies"`
	LocalLinks        int         `json:"local_links"`
	Duplicates        []Duplicate `json:"duplicates,omitempty"`
	Cycles            []string    `json:"cycles,omitempty"`
}

// Duplicate is an external name installed in more than one version.
type Duplicate struct {
	Name    string `json:"name"`
	Hoisted string `json:"hoisted"`
	// Shared names the consumers served by the hoisted copy.
	Shared []string    `json:"shared"`
	Nested []NestedUse `json:"nested"`
}

// NestedUse is a consumer forced off the hoisted copy.
type NestedUse struct {
	Consumer string `json:"consumer"`
	Range    string `json:"range"`
	Version  string `json:"version"`
}

// Explanation answers why a consumer gets a dependency from where it does.
type Explanation struct {
	Consumer string `json:"consumer"`
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Provider string `json:"provider"`
	// Local is the sibling package path for workspace providers.
	Local   string `json:"local,omitempty"`
	Version string `json:"version"`
	// Hoisted is true when an external dependency is served by the shared copy.
	Hoisted        bool   `json:"hoisted"`
	HoistedVersion string `json:"hoisted_version,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Target         string `json:"target"`
}
