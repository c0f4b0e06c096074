// Package builder materializes one site per input row: it copies the
// template, fills in the row's contact details, rotates the hero word,
// patches the page title and optionally starts a dev server.
//
// Rows are processed one at a time in input order. A failure while building
// one site is recorded on that site's result and the run moves on; only an
// error reading the input stops the run.
package builder
