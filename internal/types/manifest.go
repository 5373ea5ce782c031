package types

type Requirement struct {
	Name    string
	Op      ConstraintOp
	Version string
	Source  string
}

type Manifest struct {
	Path    string
	Entries []Requirement
}
