package catalog

// Method describes one quantization pathway.
type Method struct {
	Key       string   `toml:"key"` // menu number, empty for flag-only methods
	Name      string   `toml:"name"`
	Label     string   `toml:"label"`
	Summary   string   `toml:"summary"`
	Backend   string   `toml:"backend"`   // transformers, onnx, tflite, mobile
	Precision string   `toml:"precision"` // passed to the backend; defaults to Name
	Requires  []string `toml:"requires"`
}

// Dependency is an external package or executable a backend delegates to.
type Dependency struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	Module      string `toml:"module"` // Python import name
	Binary      string `toml:"binary"` // executable looked up on PATH
	Pip         string `toml:"pip"`
}

// IsPython reports whether the dependency is checked by importing a Python module.
func (d Dependency) IsPython() bool {
	return d.Module != ""
}

// Package returns the pip package that provides the dependency.
func (d Dependency) Package() string {
	if d.Pip != "" {
		return d.Pip
	}
	if d.Module != "" {
		return d.Module
	}
	return d.Name
}

// Delegated reports whether the method hands off to external tooling.
func (m Method) Delegated() bool {
	return m.Backend != "mobile"
}

// Target returns the precision handed to the backend.
func (m Method) Target() string {
	if m.Precision != "" {
		return m.Precision
	}
	return m.Name
}

// Title is the name shown to users.
func (d Dependency) Title() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}
