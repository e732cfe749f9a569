// Package analysis turns decoded audio into MFCC feature matrices.
//
// The pipeline frames mono PCM into short-time spectra, keeps the
// highest-energy half of the frames to discard near-silence, projects the
// spectra through a fixed mel filter bank with logarithmic compression, and
// applies a DCT-II to produce the cepstral coefficients the fingerprint
// model is fitted on.
package analysis
