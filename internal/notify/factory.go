package notify

import "fmt"

// Config selects and parameterizes the notification backends.
type Config struct {
	Backends     []string
	SlackWebhook string
	WebhookURL   string
}

// FromConfig builds a Notifier from configuration. With no backends
// configured, notifications go to the terminal.
func FromConfig(cfg Config) (Notifier, error) {
	var backends []Notifier
	for _, name := range cfg.Backends {
		backend, err := buildBackend(name, cfg)
		if err != nil {
			return nil, err
		}
		backends = append(backends, backend)
	}

	switch len(backends) {
	case 0:
		return NewTerminal(), nil
	case 1:
		return backends[0], nil
	default:
		return NewMulti(backends...), nil
	}
}

func buildBackend(name string, cfg Config) (Notifier, error) {
	switch name {
	case "terminal":
		return NewTerminal(), nil
	case "slack":
		if cfg.SlackWebhook == "" {
			return nil, fmt.Errorf("slack backend requires webhook URL")
		}
		return NewSlack(cfg.SlackWebhook), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook backend requires URL")
		}
		return NewWebhook(cfg.WebhookURL), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown notification backend: %s", name)
	}
}
