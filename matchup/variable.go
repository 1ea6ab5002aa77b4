// Package matchup models paired satellite-sensor matchup datasets: the
// harmonisation variables of each matchup record, their declared random and
// systematic uncertainties, and the scanline grouping that drives correlated
// error injection.
//
// Harmonisation variables are addressed by name, never by column position.
// The Variable enumeration defines the canonical column order used whenever
// a matrix view of the data is required.
package matchup

// Variable identifies one harmonisation variable of a matchup record.
type Variable int

const (
	// SpaceCount is the space-view calibration count. Its random uncertainty
	// is declared per scanline, not per record.
	SpaceCount Variable = iota
	// ICTCount is the internal calibration target count. Its random
	// uncertainty is declared per scanline, not per record.
	ICTCount
	// EarthCount is the Earth-view count.
	EarthCount
	// ICTRadiance is the internal calibration target radiance.
	ICTRadiance
	// OrbitTemp is the orbit temperature.
	OrbitTemp
)

// NumVariables is the number of explanatory harmonisation variables.
const NumVariables = 5

var variableNames = map[Variable]string{
	SpaceCount:  "space_count",
	ICTCount:    "ict_count",
	EarthCount:  "earth_count",
	ICTRadiance: "ict_radiance",
	OrbitTemp:   "orbit_temp",
}

// String returns the variable's snake_case name.
func (v Variable) String() string {
	if name, ok := variableNames[v]; ok {
		return name
	}

	return "unknown"
}

// ScanlineCorrelated reports whether the variable's random uncertainty is
// declared once per scanline and shared by every record in the scanline.
// Space and internal-target counts derive from rolling averages over
// scanlines, so their noise is common to all matchups of a scanline.
func (v Variable) ScanlineCorrelated() bool {
	return v == SpaceCount || v == ICTCount
}

// Variables lists all harmonisation variables in canonical column order.
func Variables() []Variable {
	return []Variable{SpaceCount, ICTCount, EarthCount, ICTRadiance, OrbitTemp}
}
