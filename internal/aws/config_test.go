package aws

import (
	"context"
	"os"
	"testing"
)

func TestLoadAWSConfigDefaultRegion(t *testing.T) {
	os.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "ap-southeast-1" {
		t.Fatalf("expected default region 'ap-southeast-1', got %s", cfg.Region)
	}
}

func TestLoadAWSConfigHonorsEnv(t *testing.T) {
	os.Setenv("AWS_REGION", "us-east-1")
	defer os.Unsetenv("AWS_REGION")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
}

func TestRegionMatchesConfig(t *testing.T) {
	os.Unsetenv("AWS_REGION")
	if got := Region(); got != "ap-southeast-1" {
		t.Fatalf("Region() = %s, want ap-southeast-1", got)
	}

	os.Setenv("AWS_REGION", "ap-northeast-1")
	defer os.Unsetenv("AWS_REGION")
	if got := Region(); got != "ap-northeast-1" {
		t.Fatalf("Region() = %s, want ap-northeast-1", got)
	}
}
