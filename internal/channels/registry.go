// internal/channels/registry.go
package channels

import "alert-notifier/internal/models"

// Registry maps a channel identifier to its strategy. It is built once at
// startup and never mutated afterwards; an unknown channel resolves to nil
// and the caller treats that as an immediate permanent failure.
type Registry struct {
	strategies map[models.Channel]Strategy
}

func NewRegistry(webhook, email, sms Strategy) *Registry {
	return &Registry{
		strategies: map[models.Channel]Strategy{
			models.ChannelWebhook: webhook,
			models.ChannelEmail:   email,
			models.ChannelSMS:     sms,
		},
	}
}

// Get returns the strategy for a channel, or nil when none is registered.
func (r *Registry) Get(channel models.Channel) Strategy {
	return r.strategies[channel]
}
