package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Replacements_Defaults(t *testing.T) {
	r := Record{Domain: "acme.test", Phone: "123", Email: "x@acme.test"}

	assert.Equal(t, map[string]string{
		"phone":   "123",
		"address": "N/A",
		"email":   "x@acme.test",
	}, r.Replacements())
}

func TestRecord_Replacements_BlankCountsAsMissing(t *testing.T) {
	r := Record{Domain: "a", Phone: "  "}
	assert.Equal(t, DefaultValue, r.Replacements()[KeyPhone])
}

func TestRecord_PageTitle(t *testing.T) {
	assert.Equal(t, "acme.test", Record{Domain: "acme.test"}.PageTitle())
	assert.Equal(t, "New Biz", Record{Domain: "acme.test", Title: "New Biz"}.PageTitle())
}
