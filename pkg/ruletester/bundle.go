package ruletester

// Bundle groups the cases of one rule. Both lists must be non-empty.
type Bundle struct {
	Valid   []RawCase `yaml:"valid"`
	Invalid []RawCase `yaml:"invalid"`
}
