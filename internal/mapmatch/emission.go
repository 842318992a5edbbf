package mapmatch

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
)

// emissionProbability computes P_e(c|s) = N(d_z; 0, sigma_z) *
// max(0.01, N(d_a; 0, sigma_a)). The azimuth factor is omitted
// (treated as 1) when the sample carries no azimuth.
func emissionProbability(sampleAzimuth float64, hasAzimuth bool, candidateAzimuth, dz, sigmaZ, sigmaA float64) float64 {
	distFactor := distuv.Normal{Mu: 0, Sigma: sigmaZ}.Prob(dz)

	if !hasAzimuth {
		return distFactor
	}

	da := geo.CircularDiff(sampleAzimuth, candidateAzimuth)
	azFactor := distuv.Normal{Mu: 0, Sigma: sigmaA}.Prob(da)
	if azFactor < 0.01 {
		azFactor = 0.01
	}
	return distFactor * azFactor
}
