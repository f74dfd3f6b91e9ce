package osmimport

import (
	"testing"

	"github.com/paulmach/osm"

	"github.com/twhume/openstreetmap-router/pkg/graph"
)

func TestTagsToMap(t *testing.T) {
	tags := osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "name", Value: "Elm Street"},
	}
	m := tagsToMap(tags)
	if m["highway"] != "residential" || m["name"] != "Elm Street" {
		t.Errorf("tagsToMap(%v) = %v", tags, m)
	}
}

func TestTagsToMapFeedsWalkabilityPredicate(t *testing.T) {
	walkable := tagsToMap(osm.Tags{{Key: "highway", Value: "footway"}})
	if !graph.IsWalkable(walkable) {
		t.Error("expected footway tags to be walkable")
	}
	notWalkable := tagsToMap(osm.Tags{{Key: "highway", Value: "motorway"}})
	if graph.IsWalkable(notWalkable) {
		t.Error("expected motorway tags to be non-walkable")
	}
}
