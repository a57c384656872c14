// Package textutil provides text helpers for company-name comparison and
// search-query sanitization.
//
// Name normalization applies Unicode NFKC normalization, case folding, and
// whitespace collapsing so that "L'Oréal " and "l'oréal" compare equal.
package textutil
