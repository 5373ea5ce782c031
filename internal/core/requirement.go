package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/shared"
	"funcfleet/internal/types"
)

// opTokens is the ordered list of requirement operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false matches
// (e.g. ">=" before ">").
var opTokens = []types.ConstraintOp{
	types.ConstraintOpGte,
	types.ConstraintOpLte,
	types.ConstraintOpCompat,
	types.ConstraintOpNe,
	types.ConstraintOpEq2,
	types.ConstraintOpEq,
	types.ConstraintOpGt,
	types.ConstraintOpLt,
}

// ParseRequirement splits a raw "name==version" manifest line into a
// Requirement. Names are PEP 503 normalized; extras ("name[extra]") are
// dropped from the name. When no operator is found the requirement is a
// bare name reference with ConstraintOpNone.
func ParseRequirement(raw string, source string) (types.Requirement, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Requirement{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty requirement")
	}
	for _, op := range opTokens {
		if strings.Contains(raw, string(op)) {
			parts := strings.SplitN(raw, string(op), 2)
			name := normalizeRequirementName(parts[0])
			version := strings.TrimSpace(parts[1])
			if name == "" || version == "" {
				return types.Requirement{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid requirement: %s", raw))
			}
			return types.Requirement{
				Name:    name,
				Op:      op,
				Version: version,
				Source:  source,
			}, nil
		}
	}
	return types.Requirement{
		Name:    normalizeRequirementName(raw),
		Op:      types.ConstraintOpNone,
		Version: "",
		Source:  source,
	}, nil
}

func normalizeRequirementName(value string) string {
	name := strings.TrimSpace(value)
	if idx := strings.Index(name, "["); idx >= 0 {
		name = name[:idx]
	}
	return shared.NormalizePackageName(name)
}

// Pinned reports whether the requirement pins one exact version.
func Pinned(req types.Requirement) bool {
	return req.Op == types.ConstraintOpEq || req.Op == types.ConstraintOpEq2
}
