package types

type TriggerType string

const (
	TriggerTypePubSub TriggerType = "pubsub"
	TriggerTypeHTTP   TriggerType = "http"
)

type SpecKind string

const (
	SpecKindFleet   SpecKind = "fleet"
	SpecKindOverlay SpecKind = "overlay"
)

type ConstraintOp string

const (
	ConstraintOpNone   ConstraintOp = ""
	ConstraintOpEq     ConstraintOp = "="
	ConstraintOpEq2    ConstraintOp = "=="
	ConstraintOpNe     ConstraintOp = "!="
	ConstraintOpCompat ConstraintOp = "~="
	ConstraintOpGte    ConstraintOp = ">="
	ConstraintOpLte    ConstraintOp = "<="
	ConstraintOpGt     ConstraintOp = ">"
	ConstraintOpLt     ConstraintOp = "<"
)

type ValidationLevel string

const (
	ValidationLevelError ValidationLevel = "error"
	ValidationLevelWarn  ValidationLevel = "warn"
)

type DeployStatus string

const (
	DeployStatusOK      DeployStatus = "ok"
	DeployStatusFailed  DeployStatus = "failed"
	DeployStatusSkipped DeployStatus = "skipped"
	DeployStatusDryRun  DeployStatus = "dry-run"
)

// Visibility classifies whether a forum topic is publicly readable.
type Visibility string

const (
	VisibilityRegular Visibility = "regular"
	VisibilityHidden  Visibility = "hidden"
	VisibilityDeleted Visibility = "deleted"
)

// TopicStatus is the search status parsed from a topic title.
type TopicStatus string

const (
	TopicStatusActive   TopicStatus = "Ищем"
	TopicStatusFoundOK  TopicStatus = "НЖ"
	TopicStatusFoundNot TopicStatus = "НП"
	TopicStatusClosed   TopicStatus = "Завершен"
)
