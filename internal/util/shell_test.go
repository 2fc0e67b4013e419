// SPDX-License-Identifier: Apache-2.0

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArgForShell(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"plain word", "manage.py", "'manage.py'"},
		{"empty string", "", "''"},
		{"spaces", "my project", "'my project'"},
		{"single quote", "it's", `'it'\''s'`},
		{"tilde prefix kept expandable", "~/django/blog", "~/'django/blog'"},
		{"tilde prefix with quote", "~/dir's", `~/'dir'\''s'`},
		{"tilde not at start quoted whole", "/home/~user", "'/home/~user'"},
		{"glob characters quoted", "*.pyc", "'*.pyc'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteArgForShell(tt.arg))
		})
	}
}

func TestQuoteEnvForShell(t *testing.T) {
	assert.Equal(t, "DJANGO_SETTINGS_MODULE='blog.settings'",
		QuoteEnvForShell("DJANGO_SETTINGS_MODULE", "blog.settings"))
	assert.Equal(t, "DJANGO_SUPERUSER_PASSWORD='pa'\\''ss'",
		QuoteEnvForShell("DJANGO_SUPERUSER_PASSWORD", "pa'ss"))
	assert.Equal(t, "EMPTY=''", QuoteEnvForShell("EMPTY", ""))
}
