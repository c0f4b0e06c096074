// Package workspace manages scratch directories that live for one run,
// such as the checkout of a remote template.
package workspace
