package reconcile

import (
	"strings"

	"rostersync/internal/catalog"
	"rostersync/internal/roster"
)

// Anomaly records a category value that could not be resolved against the
// catalog. The tag for that category is omitted from desired state; the
// caller logs the anomaly.
type Anomaly struct {
	Category string
	Raw      string
}

// Desired computes the tag set a record's entity should hold. It is total:
// unresolvable values produce anomalies, never errors. An empty category
// field is "not set" and omits its tag silently. The baseline tag is always
// included; the captain tag follows the boolean flag. An omitted category
// leaves no tag in the desired set, so the differ strips any stale managed
// tag the entity still carries.
func Desired(rec roster.Record, cat *catalog.Catalog) (catalog.TagSet, []Anomaly) {
	desired := catalog.NewTagSet(cat.BaselineTag())
	var anomalies []Anomaly

	if tier := strings.TrimSpace(rec.Tier); tier != "" {
		if tag, ok := cat.TierTag(tier); ok {
			desired.Add(tag)
		} else {
			anomalies = append(anomalies, Anomaly{Category: "tier", Raw: rec.Tier})
		}
	}

	if position := strings.TrimSpace(rec.EffectivePosition()); position != "" {
		if tag, ok := cat.PositionTag(position); ok {
			desired.Add(tag)
		} else {
			anomalies = append(anomalies, Anomaly{Category: "position", Raw: position})
		}
	}

	if squad := strings.TrimSpace(rec.Squad); squad != "" {
		if tag, ok := cat.SquadTag(squad); ok {
			desired.Add(tag)
		} else {
			anomalies = append(anomalies, Anomaly{Category: "squad", Raw: rec.Squad})
		}
	}

	if rec.Captain {
		desired.Add(cat.CaptainTag())
	}

	return desired, anomalies
}
