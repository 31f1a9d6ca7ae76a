package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	wperrors "github.com/mwantia/webproducer/data/errors"
)

func TestLoad(t *testing.T) {
	t.Setenv("WP_TEST_TOKEN", "secret")

	content := `
templateSource:
  type: filesystem
  path: ./site
destination:
  type: s3
  bucket: www.example.com
  region: eu-west-1
  acl: public-read
data:
  type: graphql
  endpoint: https://graphql.datocms.com/
  token: ${env:WP_TEST_TOKEN}
  published: true
stage: prod
logLevel: debug
archiveDestination: true
webserver:
  cloudFrontDistributionId: E123
build:
  theme:
    - ./site/theme/**/*.hbs
  prefixCss: true
`
	file := filepath.Join(t.TempDir(), "webproducer.yaml")
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.Token != "secret" {
		t.Errorf("expected expanded token, got %q", cfg.Data.Token)
	}
	if cfg.Destination.Type != StorageS3 || cfg.Destination.ACL != "public-read" {
		t.Errorf("unexpected destination: %+v", cfg.Destination)
	}
	if cfg.Destination.Prefix != "prod" {
		t.Errorf("expected the stage as destination prefix, got %q", cfg.Destination.Prefix)
	}
	if cfg.Webserver.CloudFrontDistributionID != "E123" || !cfg.ArchiveDestination {
		t.Errorf("unexpected webserver or archive settings: %+v", cfg)
	}
	if len(cfg.Build.Theme) != 1 || cfg.Build.Theme[0] != "./site/theme/**/*.hbs" {
		t.Errorf("expected theme override, got %v", cfg.Build.Theme)
	}
	if len(cfg.Build.Scripts) != 1 || cfg.Build.Scripts[0] != DefaultScripts {
		t.Errorf("expected default scripts, got %v", cfg.Build.Scripts)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoad_Text(t *testing.T) {
	cfg, err := Load("data:\n  type: get\n  endpoint: ${env:WP_TEST_UNSET}https://example.com/data.json\n")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.Endpoint != "https://example.com/data.json" {
		t.Errorf("expected unset variable to expand empty, got %q", cfg.Data.Endpoint)
	}
	if cfg.Destination.Path != DefaultDestination || cfg.TemplateSource.Path != "." {
		t.Errorf("expected default locations, got %+v / %+v", cfg.TemplateSource, cfg.Destination)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"missing file":        filepath.Join(t.TempDir(), "missing.yaml"),
		"invalid yaml":        "data: [\n",
		"unknown data type":   "data:\n  type: ftp\n",
		"graphql endpoint":    "data:\n  type: graphql\n",
		"s3 without bucket":   "destination:\n  type: s3\n",
		"unknown storage":     "destination:\n  type: ftp\n",
		"invalid log level":   "logLevel: loud\n",
		"negative concurrent": "concurrency: -1\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(input)
			if !errors.Is(err, wperrors.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Build.RelativeRoot != DefaultRelativeRoot || cfg.Data.Type != DataFilesystem {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
