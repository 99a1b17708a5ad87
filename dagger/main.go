// Package main provides a Dagger module for testing, building and publishing ClawTake.
package main

import (
	"context"
	"dagger/clawtake/internal/dagger"
	"fmt"
	"strings"
)

const goImage = "golang:1.24.2-alpine"

// binaries are the commands shipped in the container image.
var binaries = []string{"rest", "db"}

type Clawtake struct{}

// goContainer returns a Go toolchain container with module and build caches mounted.
func goContainer(src *dagger.Directory) *dagger.Container {
	return dag.Container().
		From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithDirectory("/src", src).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")
}

// Test runs the unit tests. Integration tests need a Docker daemon and are
// run separately with the integration build tag.
func (m *Clawtake) Test(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
) (string, error) {
	return goContainer(src).
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"go", "test", "-count=1", "./..."}).
		Stdout(ctx)
}

// BuildContainer creates a container image for the project.
func (m *Clawtake) BuildContainer(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Platform to build for
	// +optional
	// +default="linux/amd64"
	platform *dagger.Platform,
) (*dagger.Container, error) {
	buildPlatform := dagger.Platform("linux/amd64")
	if platform != nil {
		buildPlatform = *platform
	}

	platformArch, err := dag.Containerd().ArchitectureOf(ctx, buildPlatform)
	if err != nil {
		return nil, fmt.Errorf("failed to get architecture: %w", err)
	}

	buildCtr := goContainer(src).
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("GOARCH", platformArch).
		WithExec([]string{"apk", "add", "--no-cache", "ca-certificates"}).
		WithExec([]string{"mkdir", "-p", "/src/bin", "/src/logs"})

	for _, binary := range binaries {
		buildCtr = buildCtr.WithExec([]string{
			"go", "build",
			"-ldflags=-s -w",
			"-o", "/src/bin/" + binary,
			"./cmd/" + binary,
		})
	}

	// Config is mounted at /app/config at runtime
	return dag.Container(dagger.ContainerOpts{Platform: buildPlatform}).
		From("gcr.io/distroless/static-debian12:latest").
		WithDirectory("/app/bin", buildCtr.Directory("/src/bin")).
		WithDirectory("/app/logs", buildCtr.Directory("/src/logs")).
		WithFile("/etc/ssl/certs/ca-certificates.crt", buildCtr.File("/etc/ssl/certs/ca-certificates.crt")).
		WithWorkdir("/app").
		WithExposedPort(8080).
		WithEntrypoint([]string{"/app/bin/rest"}), nil
}

// Publish the application container after testing and building it.
func (m *Clawtake) Publish(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Docker image name (e.g. "username/repo:tag")
	// +required
	imageName string,
	// Platforms to build for (comma-separated, e.g. "linux/amd64,linux/arm64")
	// +optional
	// +default="linux/amd64"
	platforms string,
) (string, error) {
	if _, err := m.Test(ctx, src); err != nil {
		return "", fmt.Errorf("tests failed: %w", err)
	}

	platformList := []dagger.Platform{"linux/amd64"}
	if platforms != "" {
		platformList = platformList[:0]
		for _, p := range strings.Split(platforms, ",") {
			platformList = append(platformList, dagger.Platform(strings.TrimSpace(p)))
		}
	}

	platformVariants := make([]*dagger.Container, 0, len(platformList))
	for _, platform := range platformList {
		container, err := m.BuildContainer(ctx, src, &platform)
		if err != nil {
			return "", fmt.Errorf("failed to build container for %s: %w", platform, err)
		}
		platformVariants = append(platformVariants, container)
	}

	ref, err := dag.Container().Publish(ctx, imageName, dagger.ContainerPublishOpts{
		PlatformVariants: platformVariants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish image: %w", err)
	}

	return ref, nil
}

// Run builds and runs one of the commands against a config directory.
func (m *Clawtake) Run(
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory containing common.toml and api.toml
	// +required
	configDir *dagger.Directory,
	// Command to run: "rest" or "db"
	// +required
	cmd string,
	// Arguments passed to the command, e.g. "migrate" for db
	// +optional
	args []string,
) *dagger.Container {
	return goContainer(src).
		WithDirectory("/etc/clawtake/config", configDir).
		WithExec([]string{"go", "build", "-o", "/src/bin/" + cmd, "./cmd/" + cmd}).
		WithExec(append([]string{"/src/bin/" + cmd}, args...))
}
