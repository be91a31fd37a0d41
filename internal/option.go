package internal

import "github.com/noam/updown/internal/storage"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	dialogs storage.DialogService
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDialogs attaches a native file dialog implementation. Without one
// the backends simply lack the dialog capability and hosts drive save-as
// naming themselves.
func WithDialogs(d storage.DialogService) Option {
	return func(a *application) {
		a.dialogs = d
	}
}
