package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/redbike"
)

func TestRegistryBuildsRoundRobin(t *testing.T) {
	reg := NewRegistry()
	s, err := reg.Build("roundrobin:A:B")
	require.NoError(t, err)
	assert.Equal(t, []string{"work-A", "work-B"}, s.Queues())
}

func TestRegistryRejectsUnknownName(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Build("does-not-exist:A")
	assert.Error(t, err)
}

func TestRegistryRegisterCustomStrategy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fixed", func(initstring string) (redbike.Strategy, error) {
		rr, err := NewRoundRobin("Z")
		return rr, err
	})
	s, err := reg.Build("fixed:x")
	require.NoError(t, err)
	assert.Equal(t, []string{"work-Z"}, s.Queues())
}
