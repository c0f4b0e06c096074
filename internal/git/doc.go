// Package git fetches site templates that live in a Git repository.
//
// Clones are shallow and single-branch by default: a template is copied,
// never committed to, so history is not needed.
package git
