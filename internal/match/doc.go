// Package match suggests the closest known name for a misspelled one.
//
// Names are compared after folding case and dropping separators, so
// "url_base", "urlBase" and "UrlBase" are the same name. Similarity is the
// normalized Levenshtein distance of the folded forms.
//
// Key functions:
//   - Distance: edit distance between two strings
//   - Rank: scores candidate names against a query
//   - Suggest: returns a single unambiguous close candidate
package match
