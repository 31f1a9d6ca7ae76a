package config

import (
	"os"
	"regexp"
	"strings"

	wperrors "github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
	"gopkg.in/yaml.v3"
)

// StorageType selects the adapter of a storage location
type StorageType string

const (
	StorageFilesystem StorageType = "filesystem"
	StorageS3         StorageType = "s3"
)

// DataType selects where the site data comes from
type DataType string

const (
	DataGraphQL    DataType = "graphql"
	DataFilesystem DataType = "filesystem"
	DataS3         DataType = "s3"
	DataGet        DataType = "get"
	DataSQL        DataType = "sql"
	DataMongo      DataType = "mongo"
	DataConsul     DataType = "consul"
)

// Config represents the complete webproducer configuration
type Config struct {
	TemplateSource     StorageConfig   `yaml:"templateSource"`
	Destination        StorageConfig   `yaml:"destination"`
	Data               DataConfig      `yaml:"data"`
	// Stage separates deployments into a bucket; it is the default key
	// prefix of an s3 destination.
	Stage              string          `yaml:"stage"`
	LogLevel           string          `yaml:"logLevel"`
	LogFile            string          `yaml:"logFile"`
	ArchiveDestination bool            `yaml:"archiveDestination"`
	Concurrency        int             `yaml:"concurrency"`
	Webserver          WebserverConfig `yaml:"webserver"`
	Build              BuildConfig     `yaml:"build"`
}

// StorageConfig configures the template source or the destination
type StorageConfig struct {
	Type     StorageType `yaml:"type"`
	Path     string      `yaml:"path"`
	Bucket   string      `yaml:"bucket"`
	Region   string      `yaml:"region"`
	Endpoint string      `yaml:"endpoint"`
	Prefix   string      `yaml:"prefix"`
	ACL      string      `yaml:"acl"`
	Insecure bool        `yaml:"insecure"`
}

// DataConfig configures the data source feeding the templates
type DataConfig struct {
	Type      DataType `yaml:"type"`
	Endpoint  string   `yaml:"endpoint"`
	Token     string   `yaml:"token"`
	Query     string   `yaml:"query"`
	Path      string   `yaml:"path"`
	Published bool     `yaml:"published"`
	Provider  string   `yaml:"provider"`
	Snapshot  bool     `yaml:"snapshot"`
	Region    string   `yaml:"region"`
}

// WebserverConfig configures the CDN in front of the destination
type WebserverConfig struct {
	CloudFrontDistributionID string `yaml:"cloudFrontDistributionId"`
	Region                   string `yaml:"region"`
}

// BuildConfig mirrors the command line flags
type BuildConfig struct {
	RelativeRoot string   `yaml:"relativeRoot"`
	Data         []string `yaml:"data"`
	Theme        []string `yaml:"theme"`
	Scripts      []string `yaml:"scripts"`
	Stylesheets  []string `yaml:"stylesheets"`
	Files        []string `yaml:"files"`
	PrefixCSS    bool     `yaml:"prefixCss"`
	Transform    string   `yaml:"transform"`
	NoScripts    bool     `yaml:"noScripts"`
	NoCSS        bool     `yaml:"noCss"`
	NoFiles      bool     `yaml:"noFiles"`
	NoPages      bool     `yaml:"noPages"`
}

const (
	DefaultRelativeRoot = "./src"
	DefaultData         = "./src/data/data.json"
	DefaultTheme        = "./src/theme/**/*.hbs"
	DefaultScripts      = "./src/scripts/main.js"
	DefaultStylesheets  = "./src/stylesheets/main.css"
	DefaultFiles        = "./src/images/**/*.*"
	DefaultDestination  = "./dist"
	DefaultConcurrency  = 8
)

var envPattern = regexp.MustCompile(`\$\{env:(\w+)\}`)

// Default returns the configuration used without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads the configuration from a file, or parses pathOrText directly
// when it is YAML text instead of a path.
func Load(pathOrText string) (*Config, error) {
	if isText(pathOrText) {
		return Parse([]byte(pathOrText))
	}

	text, err := os.ReadFile(pathOrText)
	if err != nil {
		return nil, wperrors.Config(err, "failed to read config file '%s'", pathOrText)
	}

	return Parse(text)
}

func isText(pathOrText string) bool {
	return strings.Contains(pathOrText, "\n") || strings.Contains(pathOrText, ": ")
}

// Parse expands ${env:NAME} placeholders, then parses, defaults and
// validates the YAML text.
func Parse(text []byte) (*Config, error) {
	expanded := expandEnv(string(text))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, wperrors.Config(err, "failed to parse config")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandEnv replaces every placeholder, unset variables become empty.
func expandEnv(text string) string {
	return envPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// applyDefaults fills in zero-value fields with the command line defaults.
func (c *Config) applyDefaults() {
	if c.TemplateSource.Type == "" {
		c.TemplateSource.Type = StorageFilesystem
	}
	if c.TemplateSource.Type == StorageFilesystem && c.TemplateSource.Path == "" {
		c.TemplateSource.Path = "."
	}
	if c.Destination.Type == "" {
		c.Destination.Type = StorageFilesystem
	}
	if c.Destination.Type == StorageFilesystem && c.Destination.Path == "" {
		c.Destination.Path = DefaultDestination
	}
	if c.Destination.Type == StorageS3 && c.Destination.Prefix == "" && !strings.HasPrefix(c.Destination.Path, "s3://") {
		c.Destination.Prefix = c.Stage
	}
	if c.Data.Type == "" {
		c.Data.Type = DataFilesystem
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}

	if c.Build.RelativeRoot == "" {
		c.Build.RelativeRoot = DefaultRelativeRoot
	}
	if c.Build.Data == nil {
		c.Build.Data = []string{DefaultData}
	}
	if c.Build.Theme == nil {
		c.Build.Theme = []string{DefaultTheme}
	}
	if c.Build.Scripts == nil {
		c.Build.Scripts = []string{DefaultScripts}
	}
	if c.Build.Stylesheets == nil {
		c.Build.Stylesheets = []string{DefaultStylesheets}
	}
	if c.Build.Files == nil {
		c.Build.Files = []string{DefaultFiles}
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := c.TemplateSource.validate("templateSource"); err != nil {
		return err
	}
	if err := c.Destination.validate("destination"); err != nil {
		return err
	}

	switch c.Data.Type {
	case DataGraphQL:
		if c.Data.Endpoint == "" {
			return wperrors.Config(nil, "data.endpoint is required for type graphql")
		}
	case DataGet, DataSQL, DataMongo:
		if c.Data.Endpoint == "" {
			return wperrors.Config(nil, "data.endpoint is required for type %s", c.Data.Type)
		}
	case DataS3:
		if c.Data.Path == "" {
			return wperrors.Config(nil, "data.path is required for type s3")
		}
	case DataConsul:
		if c.Data.Path == "" {
			return wperrors.Config(nil, "data.path is required for type consul")
		}
	case DataFilesystem:
		// valid
	default:
		return wperrors.Config(nil, "invalid data.type: %s (must be graphql, filesystem, s3, get, sql, mongo or consul)", c.Data.Type)
	}

	if _, err := log.Parse(c.LogLevel); err != nil {
		return wperrors.Config(err, "invalid logLevel")
	}
	if c.Concurrency < 0 {
		return wperrors.Config(nil, "concurrency must be positive: %d", c.Concurrency)
	}

	return nil
}

func (s *StorageConfig) validate(name string) error {
	switch s.Type {
	case StorageFilesystem:
		if s.Path == "" {
			return wperrors.Config(nil, "%s.path is required for type filesystem", name)
		}
	case StorageS3:
		if s.Bucket == "" && !strings.HasPrefix(s.Path, "s3://") {
			return wperrors.Config(nil, "%s.bucket is required for type s3", name)
		}
	default:
		return wperrors.Config(nil, "invalid %s.type: %s (must be filesystem or s3)", name, s.Type)
	}

	return nil
}
