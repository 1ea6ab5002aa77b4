package measeq

import "github.com/harmosat/harmc/matchup"

// DefaultEmissivity is the nominal internal calibration target emissivity
// entering the AVHRR measurement equation alongside the a1 correction.
const DefaultEmissivity = 0.98514

// AVHRR is the four-coefficient AVHRR-family measurement equation:
//
//	L_E = a0 + (e + a1)*L_ICT*(C_S - C_E)/(C_S - C_ICT)
//	         + a2*(C_ICT - C_E)*(C_S - C_E) + a3*T_o
//
// with e the target emissivity. Variables follow the canonical matchup
// column order.
type AVHRR struct {
	emissivity float64
}

var _ Model = (*AVHRR)(nil)

// NewAVHRR creates the AVHRR measurement equation with the default
// emissivity.
func NewAVHRR() *AVHRR {
	return &AVHRR{emissivity: DefaultEmissivity}
}

// NewAVHRRWithEmissivity creates the AVHRR measurement equation with a
// custom target emissivity.
func NewAVHRRWithEmissivity(emissivity float64) *AVHRR {
	return &AVHRR{emissivity: emissivity}
}

// CoefficientCount returns 4: offset, gain correction, nonlinearity, and
// orbit-temperature terms.
func (a *AVHRR) CoefficientCount() int { return 4 }

// VariableCount returns the number of harmonisation variables.
func (a *AVHRR) VariableCount() int { return matchup.NumVariables }

// Evaluate computes the calibrated Earth radiance for one record.
func (a *AVHRR) Evaluate(x, beta []float64) float64 {
	cs := x[matchup.SpaceCount]
	cict := x[matchup.ICTCount]
	ce := x[matchup.EarthCount]
	lict := x[matchup.ICTRadiance]
	to := x[matchup.OrbitTemp]

	gain := (a.emissivity + beta[1]) * lict * (cs - ce) / (cs - cict)

	return beta[0] + gain + beta[2]*(cict-ce)*(cs-ce) + beta[3]*to
}
