// Package instructions synthesizes turn-by-turn directions from a
// route's per-edge bearings and street names: adjacent edges sharing a
// display name merge into one step, and step boundaries are classified
// by the signed angle between exit and entry bearings.
package instructions

import (
	"fmt"
	"math"

	"github.com/twhume/openstreetmap-router/pkg/geo"
	"github.com/twhume/openstreetmap-router/pkg/graph"
	"github.com/twhume/openstreetmap-router/pkg/route"
)

// highwayFallback maps a highway class to its effective-name fallback
// when the way carries no street name.
var highwayFallback = map[string]string{
	"footway":        "footpath",
	"path":           "path",
	"pedestrian":     "pedestrian way",
	"steps":          "steps",
	"cycleway":       "cycleway",
	"residential":    "road",
	"living_street":  "road",
	"tertiary":       "road",
	"tertiary_link":  "road",
	"secondary":      "road",
	"secondary_link": "road",
	"primary":        "road",
	"primary_link":   "road",
	"trunk":          "road",
	"unclassified":   "road",
	"service":        "service road",
	"track":          "track",
}

// edgeLeg is one edge of the route annotated with geometry and naming.
type edgeLeg struct {
	startLat, startLon float64
	bearing            float64
	distance           float64
	name               string
	highway            string
	effectiveName      string
}

// effectiveName resolves a way's display name: its street name if
// present, else the highway-class fallback, else literally "road".
func effectiveName(name, highway string) string {
	if name != "" {
		return name
	}
	if fb, ok := highwayFallback[highway]; ok {
		return fb
	}
	return "road"
}

// legsFromPath converts a route.Path's node sequence into per-edge legs.
func legsFromPath(g *graph.Graph, p *route.Path) []edgeLeg {
	legs := make([]edgeLeg, 0, len(p.Indices)-1)
	for i := 0; i < len(p.Indices)-1; i++ {
		u, v := p.Indices[i], p.Indices[i+1]
		lat1, lon1 := float64(g.NodeLats[u]), float64(g.NodeLons[u])
		lat2, lon2 := float64(g.NodeLats[v]), float64(g.NodeLons[v])
		name, _ := g.EdgeName(u, v)
		highway, _ := g.EdgeHighway(u, v)
		legs = append(legs, edgeLeg{
			startLat:      lat1,
			startLon:      lon1,
			bearing:       geo.Bearing(lat1, lon1, lat2, lon2),
			distance:      geo.Haversine(lat1, lon1, lat2, lon2),
			name:          name,
			highway:       highway,
			effectiveName: effectiveName(name, highway),
		})
	}
	return legs
}

// Direction classifies a step's relationship to the step before it.
type Direction string

const (
	DirStart       Direction = "start"
	DirArrive      Direction = "arrive"
	DirStraight    Direction = "straight"
	DirSlightLeft  Direction = "slight_left"
	DirSlightRight Direction = "slight_right"
	DirLeft        Direction = "left"
	DirRight       Direction = "right"
	DirSharpLeft   Direction = "sharp_left"
	DirSharpRight  Direction = "sharp_right"
	DirUTurn       Direction = "u_turn"
)

// Step is one instruction in the synthesized turn-by-turn sequence.
// Name is the raw street name (empty when the way is unnamed);
// EffectiveName falls back to the highway-class description.
type Step struct {
	Text          string
	Name          string
	EffectiveName string
	Distance      float64
	Direction     Direction
	EntryBearing  float64
	ExitBearing   float64
	TurnAngle     float64 // signed angle vs. the previous step's exit bearing; 0 for the first/last step
	StartLat      float64
	StartLon      float64
}

var compassNames = [8]string{
	"north", "northeast", "east", "southeast",
	"south", "southwest", "west", "northwest",
}

// compass returns the 8-cardinal compass name for a bearing in degrees.
func compass(bearing float64) string {
	idx := int(math.Floor(math.Mod(bearing+22.5, 360) / 45))
	if idx < 0 {
		idx += 8
	}
	return compassNames[idx]
}

// normalizeAngle maps a bearing delta to (-180, 180].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// classify buckets a turn angle into a Direction.
func classify(angle float64) Direction {
	abs := math.Abs(angle)
	left := angle < 0
	switch {
	case abs < 15:
		return DirStraight
	case abs < 45:
		if left {
			return DirSlightLeft
		}
		return DirSlightRight
	case abs < 120:
		if left {
			return DirLeft
		}
		return DirRight
	case abs < 160:
		if left {
			return DirSharpLeft
		}
		return DirSharpRight
	default:
		return DirUTurn
	}
}

var directionWords = map[Direction]string{
	DirSlightLeft:  "slight left",
	DirSlightRight: "slight right",
	DirLeft:        "left",
	DirRight:       "right",
	DirSharpLeft:   "sharp left",
	DirSharpRight:  "sharp right",
	DirUTurn:       "around",
}

// groupedLeg is one or more consecutive edgeLegs sharing an effective name.
type groupedLeg struct {
	name               string
	effectiveName      string
	distance           float64
	entryBearing       float64
	exitBearing        float64
	startLat, startLon float64
}

// groupLegs merges adjacent legs that share the same effective name
// into single steps.
func groupLegs(legs []edgeLeg) []groupedLeg {
	if len(legs) == 0 {
		return nil
	}
	groups := []groupedLeg{{
		name:          legs[0].name,
		effectiveName: legs[0].effectiveName,
		distance:      legs[0].distance,
		entryBearing:  legs[0].bearing,
		exitBearing:   legs[0].bearing,
		startLat:      legs[0].startLat,
		startLon:      legs[0].startLon,
	}}
	for _, leg := range legs[1:] {
		last := &groups[len(groups)-1]
		if leg.effectiveName == last.effectiveName {
			last.distance += leg.distance
			last.exitBearing = leg.bearing
			continue
		}
		groups = append(groups, groupedLeg{
			name:          leg.name,
			effectiveName: leg.effectiveName,
			distance:      leg.distance,
			entryBearing:  leg.bearing,
			exitBearing:   leg.bearing,
			startLat:      leg.startLat,
			startLon:      leg.startLon,
		})
	}
	return groups
}

// Synthesize builds the turn-by-turn instruction sequence for a route.
// A single-edge path produces exactly two steps: the initial "Head ..."
// step and the terminal "Arrive ..." step.
func Synthesize(g *graph.Graph, p *route.Path) []Step {
	legs := legsFromPath(g, p)
	groups := groupLegs(legs)

	steps := make([]Step, 0, len(groups)+1)
	for i, grp := range groups {
		if i == 0 {
			steps = append(steps, Step{
				Text:          fmt.Sprintf("Head %s on %s", compass(grp.entryBearing), grp.effectiveName),
				Name:          grp.name,
				EffectiveName: grp.effectiveName,
				Distance:      grp.distance,
				Direction:     DirStart,
				EntryBearing:  grp.entryBearing,
				ExitBearing:   grp.exitBearing,
				StartLat:      grp.startLat,
				StartLon:      grp.startLon,
			})
			continue
		}
		prev := groups[i-1]
		angle := normalizeAngle(grp.entryBearing - prev.exitBearing)
		dir := classify(angle)

		var text string
		if dir == DirStraight {
			text = fmt.Sprintf("Continue on %s", grp.effectiveName)
		} else {
			text = fmt.Sprintf("Turn %s onto %s", directionWords[dir], grp.effectiveName)
		}
		steps = append(steps, Step{
			Text:          text,
			Name:          grp.name,
			EffectiveName: grp.effectiveName,
			Distance:      grp.distance,
			Direction:     dir,
			EntryBearing:  grp.entryBearing,
			ExitBearing:   grp.exitBearing,
			TurnAngle:     angle,
			StartLat:      grp.startLat,
			StartLon:      grp.startLon,
		})
	}

	steps = append(steps, Step{
		Text:      "Arrive at destination",
		Distance:  0,
		Direction: DirArrive,
	})
	return steps
}
