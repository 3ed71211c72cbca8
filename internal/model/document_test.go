package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{2 * 1024 * 1024, "2.00 MB"},
		{1288490188, "1.20 GB"},
		{5 * 1024 * 1024 * 1024 * 1024, "5.00 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.in))
	}
}

func TestDocument_HasAuthor(t *testing.T) {
	alice := "user-a"

	assert.True(t, (&Document{AuthorID: &alice}).HasAuthor("user-a"))
	assert.False(t, (&Document{AuthorID: &alice}).HasAuthor("user-b"))
	assert.False(t, (&Document{}).HasAuthor("user-a"))
	assert.False(t, (&Document{AuthorID: &alice}).HasAuthor(""))
}
