// Package naming normalizes corpus identifiers.
//
// Layer names and file ids are upper-case by convention while tenant slugs
// are lower-case. Callers normalize at their boundary with UpperID and Slug;
// index and tenant code compare loosely with Fold when ids may differ only
// in case or separators.
package naming
