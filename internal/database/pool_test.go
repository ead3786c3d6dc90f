package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPoolRejectsBadInput(t *testing.T) {
	_, err := NewPool("")
	assert.Error(t, err)

	_, err = NewPool("://not-a-url")
	assert.Error(t, err)
}
