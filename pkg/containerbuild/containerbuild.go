// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package containerbuild implements the Build/Serve Driver (spec.md
// §4.8): building a Docker image from the generated scaffold, running it
// (or a stock nginx image bind-mounted over the captured site), and
// reporting the resulting URL.
//
// Grounded on the Docker Engine API Go client
// (github.com/docker/docker/client + github.com/docker/go-connections/nat
// for port-binding construction), a dependency pair present in two pack
// repos (streamspace-dev-streamspace's docker-controller and
// Aureuma-si/tools/si) though neither repo's actual call-site source
// reached the retrieval pack — this wiring follows the SDK's own
// documented idiom (see SPEC_FULL.md §2).
package containerbuild

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/sethgrid/pester"

	cferrors "github.com/kraklabs/cloneforge/internal/errors"
	"github.com/kraklabs/cloneforge/internal/ui"
	"github.com/kraklabs/cloneforge/pkg/config"
)

// stepRE extracts Docker's "Step X/Y" build-progress marker from a
// streamed build-log line.
var stepRE = regexp.MustCompile(`Step (\d+)/(\d+)`)

// Driver wraps a Docker Engine API client for one capture run.
type Driver struct {
	cli *client.Client
	log *slog.Logger
}

// New connects to the local Docker daemon via the standard DOCKER_HOST /
// docker context environment, negotiating the API version so the client
// works against a range of daemon releases. It returns an error only when
// the client itself cannot be constructed; whether a daemon is reachable is
// checked separately by Ping. The orchestrator treats an unreachable daemon
// as a warning and skips build/run rather than failing the run.
func New(log *slog.Logger) (*Driver, error) {
	if log == nil {
		log = slog.Default()
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Driver{cli: cli, log: log}, nil
}

// Ping verifies the daemon is actually reachable (NewClientWithOpts alone
// never talks to the daemon).
func (d *Driver) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	return err
}

// Close releases the underlying Docker API client connection.
func (d *Driver) Close() error {
	return d.cli.Close()
}

// BuildImage builds an image tagged tag from the Dockerfile + scaffold
// already written into buildContextDir, streaming "Step X/Y" progress to
// obs.
func (d *Driver) BuildImage(ctx context.Context, buildContextDir, tag string, obs ui.Observer) error {
	tarBuf, err := tarDirectory(buildContextDir)
	if err != nil {
		return fmt.Errorf("tar build context: %w", err)
	}

	resp, err := d.cli.ImageBuild(ctx, tarBuf, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("image build: %w", err)
	}
	defer resp.Body.Close()

	return streamBuildOutput(resp.Body, obs)
}

// streamBuildOutput decodes the newline-delimited JSON the Docker build
// API streams back, forwarding "stream" lines to obs.Log and parsing
// "Step X/Y" markers into phase progress.
func streamBuildOutput(r io.Reader, obs ui.Observer) error {
	dec := json.NewDecoder(r)
	var lastErr error
	for {
		var msg struct {
			Stream      string `json:"stream"`
			ErrorDetail *struct {
				Message string `json:"message"`
			} `json:"errorDetail"`
		}
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if msg.ErrorDetail != nil {
			lastErr = fmt.Errorf("docker build: %s", msg.ErrorDetail.Message)
			continue
		}
		line := strings.TrimSpace(msg.Stream)
		if line == "" {
			continue
		}
		obs.Log(line)
		if m := stepRE.FindStringSubmatch(line); m != nil {
			cur, total := atoiSafe(m[1]), atoiSafe(m[2])
			if total > 0 {
				obs.Phase("build", float64(cur)/float64(total))
			}
		}
	}
	return lastErr
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// RunResult describes a started container.
type RunResult struct {
	ContainerID string
	URL         string
	Ready       bool
}

// waitReady polls url with bounded retries and exponential backoff until it
// answers (any status code counts — the point is that something is
// listening), or gives up. A container that never becomes ready still gets
// returned to the caller; readiness is informational, not a precondition
// for --open-browser or the final summary.
func waitReady(ctx context.Context, url string) bool {
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := pester.New()
	client.MaxRetries = 5
	client.Backoff = pester.ExponentialBackoff

	req, err := http.NewRequestWithContext(waitCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// RunImage starts a container from tag, publishing cfg.ContainerPort on
// cfg.BindIP:cfg.HostPort.
func (d *Driver) RunImage(ctx context.Context, cfg config.CloneConfig, tag string) (RunResult, error) {
	containerPort, err := nat.NewPort("tcp", itoa(cfg.ContainerPort))
	if err != nil {
		return RunResult{}, err
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{{HostIP: cfg.BindIP, HostPort: itoa(cfg.HostPort)}},
		},
	}

	resp, err := d.cli.ContainerCreate(ctx, &container.Config{
		Image:        tag,
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
	}, hostConfig, nil, nil, cfg.DockerName)
	if err != nil {
		return RunResult{}, fmt.Errorf("container create: %w", err)
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return RunResult{}, fmt.Errorf("container start: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d", cfg.BindIP, cfg.HostPort)
	return RunResult{
		ContainerID: resp.ID,
		URL:         url,
		Ready:       waitReady(ctx, url),
	}, nil
}

// ServeFolder runs a stock nginx:alpine image with the captured site and
// generated nginx.conf bind-mounted in, for the --serve-folder mode that
// skips a real image build entirely.
func (d *Driver) ServeFolder(ctx context.Context, cfg config.CloneConfig, siteRoot, nginxConfPath string) (RunResult, error) {
	const stockImage = "nginx:alpine"

	if _, _, err := d.cli.ImageInspectWithRaw(ctx, stockImage); err != nil {
		d.log.Info("pulling stock serve image", "image", stockImage)
		pull, pullErr := d.cli.ImagePull(ctx, stockImage, image.PullOptions{})
		if pullErr != nil {
			return RunResult{}, fmt.Errorf("pull %s: %w", stockImage, pullErr)
		}
		_, _ = io.Copy(io.Discard, pull)
		_ = pull.Close()
	}

	containerPort, err := nat.NewPort("tcp", itoa(cfg.ContainerPort))
	if err != nil {
		return RunResult{}, err
	}

	absSite, _ := filepath.Abs(siteRoot)
	absConf, _ := filepath.Abs(nginxConfPath)

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{{HostIP: cfg.BindIP, HostPort: itoa(cfg.HostPort)}},
		},
		Binds: []string{
			absSite + ":/usr/share/nginx/html:ro",
			absConf + ":/etc/nginx/conf.d/default.conf:ro",
		},
	}

	resp, err := d.cli.ContainerCreate(ctx, &container.Config{
		Image:        stockImage,
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
	}, hostConfig, nil, nil, cfg.DockerName+"-serve")
	if err != nil {
		return RunResult{}, fmt.Errorf("container create: %w", err)
	}
	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return RunResult{}, fmt.Errorf("container start: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d", cfg.BindIP, cfg.HostPort)
	return RunResult{
		ContainerID: resp.ID,
		URL:         url,
		Ready:       waitReady(ctx, url),
	}, nil
}

// Unavailable builds a typed error for an unreachable Docker daemon. It is
// of kind KindDependencyMissing and has no caller in the orchestrator,
// which logs an unreachable daemon as a warning instead.
func Unavailable(cause error) error {
	return cferrors.NewDependencyMissingError(
		"Docker daemon unavailable",
		"the engine could not reach a Docker daemon to build or run the container",
		"start Docker (or point DOCKER_HOST at a reachable daemon), or omit --build/--run-built",
		cause,
	)
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

// tarDirectory packages dir into an in-memory tar stream suitable for
// ImageBuild's build context. Symlinks and special files are skipped;
// the scaffold only ever contains regular files and directories.
func tarDirectory(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}
		hdr, hdrErr := tar.FileInfoHeader(info, "")
		if hdrErr != nil {
			return hdrErr
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		_, err := io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
