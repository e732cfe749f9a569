// Command cadence inspects and maintains the similarity store from the
// terminal: store status, configuration utilities, ad-hoc fingerprinting,
// and neighbour lookups.
package main
