package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Config describes how the service announces itself to Consul.
type Config struct {
	Address        string `env:"CONSUL_ADDR"`
	ServiceID      string `env:"CONSUL_SERVICE_ID"`
	ServiceAddress string `env:"CONSUL_SERVICE_ADDRESS" envDefault:"localhost"`
	CheckInterval  string `env:"CONSUL_CHECK_INTERVAL"  envDefault:"10s"`
}

// Enabled reports whether a Consul agent address is configured.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// Registrar registers and deregisters a service instance with the local Consul agent.
type Registrar struct {
	client *api.Client
	logger *zerolog.Logger
}

// NewRegistrar creates a Registrar connected to the configured Consul agent.
func NewRegistrar(cfg Config, logger *zerolog.Logger) (*Registrar, error) {
	consulCfg := api.DefaultConfig()
	consulCfg.Address = cfg.Address

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Registrar{client: client, logger: logger}, nil
}

// Registration builds the agent registration with an HTTP health check on /healthz.
func Registration(name string, cfg Config, port int) *api.AgentServiceRegistration {
	id := cfg.ServiceID
	if id == "" {
		id = fmt.Sprintf("%s-%s-%d", name, cfg.ServiceAddress, port)
	}

	return &api.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: cfg.ServiceAddress,
		Port:    port,
		Tags:    []string{"http"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", cfg.ServiceAddress, port),
			Interval:                       cfg.CheckInterval,
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// Register announces the service.
func (r *Registrar) Register(reg *api.AgentServiceRegistration) error {
	if err := r.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("register %s: %w", reg.ID, err)
	}

	r.logger.Info().Str("service_id", reg.ID).Msg("registered with consul")
	return nil
}

// Deregister removes the service instance.
func (r *Registrar) Deregister(serviceID string) error {
	return r.client.Agent().ServiceDeregister(serviceID)
}
