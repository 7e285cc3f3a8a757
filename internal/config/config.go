package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
)

type Config struct {
	PLM     PLM               `yaml:"plm"`
	Session map[string]string `yaml:"session"` // cookie name -> value, issued by the passport login
	Server  Server            `yaml:"server"`
	Mirror  Mirror            `yaml:"mirror"`
}

type PLM struct {
	BaseURL         string `yaml:"baseURL"`
	Tenant          string `yaml:"tenant"`
	SecurityContext string `yaml:"securityContext"` // Role.Organization.Collabspace
	UserAgent       string `yaml:"userAgent"`
	TimeoutSeconds  int    `yaml:"timeoutSeconds"`
	PageSize        int    `yaml:"pageSize"`
}

type Server struct {
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	SignalChannel string `yaml:"signalChannel"`
}

type Mirror struct {
	BatchSize   int    `yaml:"batchSize"`
	Concurrency int    `yaml:"concurrency"`
	Filter      string `yaml:"filter"` // JSON expression, see internal/filter
}

const (
	DefaultTimeout       = 30 * time.Second
	DefaultBatchSize     = 50
	DefaultConcurrency   = 4
	DefaultSignalChannel = "enovia:changes"
)

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse %s", path)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Mirror.BatchSize <= 0 {
		c.Mirror.BatchSize = DefaultBatchSize
	}
	if c.Mirror.Concurrency <= 0 {
		c.Mirror.Concurrency = DefaultConcurrency
	}
	if c.Server.SignalChannel == "" {
		c.Server.SignalChannel = DefaultSignalChannel
	}
	if c.PLM.SecurityContext != "" {
		c.PLM.SecurityContext = enovia.NormalizeSecurityContext(c.PLM.SecurityContext)
	}
}

// Validate reports settings every command needs.
func (c Config) Validate() error {
	if c.PLM.BaseURL == "" {
		return errors.New("plm.baseURL is required")
	}
	if c.PLM.SecurityContext == "" {
		return errors.New("plm.securityContext is required")
	}
	if !enovia.IsSecurityContext(c.PLM.SecurityContext) {
		return errors.Errorf("plm.securityContext %q is not of the form Role.Organization.Collabspace", c.PLM.SecurityContext)
	}
	return nil
}

func (p PLM) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ClientConfig is the transport configuration of the PLM section.
func (p PLM) ClientConfig() client.Config {
	return client.Config{
		BaseURL:         p.BaseURL,
		Tenant:          p.Tenant,
		SecurityContext: p.SecurityContext,
		UserAgent:       p.UserAgent,
		Timeout:         p.Timeout(),
	}
}
