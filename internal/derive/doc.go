// Package derive computes the covariates of the analytical panel: trade
// dependence and vulnerability, capability ratio and parity, regime pairing,
// alliance membership and one-year conflict history.
//
// Every variable is computed per row from that row's inputs alone. A missing
// operand or a zero denominator yields an undefined value for that field only;
// nothing in this package aborts a row or the run.
//
// Conflict history is the one variable that looks across rows. Its ordering
// contract is explicit: the panel is reduced to distinct (undirected dyad,
// year) pairs, sorted by dyad then year, and a pair inherits a previous
// dispute only from the immediately preceding element when that element is
// the same dyad exactly one year earlier.
package derive
