package estimator

// chiSquareGate95 is the one-degree-of-freedom chi-square value at the
// 5% false-alarm level (P(chi2_1 > 3.84) = 0.05), used as a Filter's
// gate threshold when none is configured. Every fusion step in this
// bank is a scalar update — even for the coupled, multi-axis variants,
// because the orchestrator always hands the filter one row of a sample
// at a time — so a single threshold suffices for every variant
// instead of one gate per state dimension.
const chiSquareGate95 = 3.84

// minInnovationVariance guards the scalar update against division by
// a near-zero innovation covariance, which would otherwise blow up
// the Kalman gain on a degenerate measurement.
const minInnovationVariance = 1e-6
