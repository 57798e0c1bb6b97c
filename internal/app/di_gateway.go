package app

import (
	"github.com/skatamatic/blulok-cloud-sub010/internal/gateway"
)

// Hub returns the gateway session hub.
func (c *Container) Hub() *gateway.Hub {
	c.hubInit.Do(func() {
		c.hub = gateway.NewHub(c.config.GatewaySendTimeout, c.Logger())
	})
	return c.hub
}
