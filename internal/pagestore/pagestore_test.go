package pagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagePath(t *testing.T) {
	path := PagePath("fd3a5c12-0001-4a6e-9c1b-2f6d8a9e0b4c", "report.pdf", 3)
	assert.Equal(t, "fd3a5c12-0001-4a6e-9c1b-2f6d8a9e0b4c/report.pdf/3.jpeg", path)
}
