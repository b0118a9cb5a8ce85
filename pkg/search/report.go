package search

import "github.com/platinummonkey/querykit/pkg/observability"

// Reasons a field or directive is dropped during compilation
const (
	ReasonUnsupportedOperator = "unsupported_operator"
	ReasonUnresolvedValue     = "unresolved_value"
	ReasonUnknownRelation     = "unknown_relation"
	ReasonUnknownColumn       = "unknown_column"
	ReasonInvalidIdentifier   = "invalid_identifier"
	ReasonEmptyDirective      = "empty_directive"
)

// reporter sends compilation drops to the logger and metrics, either of
// which may be nil
type reporter struct {
	logger  *observability.Logger
	metrics *observability.Metrics
}

var nopReporter = reporter{}

func (r reporter) skip(subject, reason string) {
	r.metrics.FieldSkipped(reason)
	if r.logger != nil {
		r.logger.WithFields(map[string]interface{}{
			"subject": subject,
			"reason":  reason,
		}).Debug("search: dropped from query")
	}
}

func (r reporter) predicate(operator string) {
	r.metrics.PredicateBuilt(operator)
}
