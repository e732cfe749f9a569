// Package scms models a track's timbre as a single Gaussian over its MFCC
// frames and scores the dissimilarity of two such models with a closed-form
// symmetrized divergence.
//
// The divergence is a ranking score, not a metric: it is symmetric and close
// to zero for identical models, but the triangle inequality does not hold and
// small negative values are possible. Callers must treat it as opaque.
package scms
