// Package transfer manages THREDDS catalogs and NcML aggregations on a
// remote server over rsync and ssh.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cedadev/esacci-esgf/internal/catalog"
)

// RemoteCatalogDest is where dataset catalogs live on the THREDDS server.
const RemoteCatalogDest = "/var/lib/tomcat/content/thredds/esacci"

// Handler runs rsync/ssh commands against one remote host.
type Handler struct {
	// Host is the user@server spec passed to ssh and rsync.
	Host string

	// AggregationsDir is the remote NcML directory.
	AggregationsDir string

	// Verbose prints each command before running it.
	Verbose bool

	// DryRun prints commands without running them.
	DryRun bool

	// Output receives echoed commands in verbose or dry-run mode.
	Output io.Writer

	// runCommand is swapped out in tests.
	runCommand func(ctx context.Context, args []string) (string, error)
}

// NewHandler returns a Handler for user@server.
func NewHandler(user, server string) *Handler {
	h := &Handler{
		Host:            fmt.Sprintf("%s@%s", user, server),
		AggregationsDir: catalog.DefaultAggregationsDir,
		Output:          os.Stdout,
	}
	h.runCommand = h.execCommand
	return h
}

func (h *Handler) execCommand(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (h *Handler) run(ctx context.Context, args []string) (string, error) {
	if (h.Verbose || h.DryRun) && h.Output != nil {
		fmt.Fprintln(h.Output, strings.Join(args, " "))
	}
	if h.DryRun {
		return "", nil
	}
	return h.runCommand(ctx, args)
}

// remote runs a command on the remote host via ssh.
func (h *Handler) remote(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"ssh", h.Host, "--"}, args...)
	return h.run(ctx, full)
}

// rsync copies a local path to dest on the remote host.
func (h *Handler) rsync(ctx context.Context, src, dest string) error {
	_, err := h.run(ctx, []string{"rsync", "-a", src, h.Host + ":" + dest})
	return err
}

// ReinitServer restarts THREDDS on the remote host.
// TODO: hit the THREDDS reinit URL instead of bouncing tomcat.
func (h *Handler) ReinitServer(ctx context.Context) error {
	_, err := h.remote(ctx, "service", "tomcat", "restart")
	return err
}

// normalisePath appends a trailing slash to directories so rsync copies
// their contents rather than the directory itself.
func normalisePath(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() && !strings.HasSuffix(p, "/") {
		return p + "/"
	}
	return p
}

// CopyToServer copies local catalogs and NcML files to the remote host,
// then reinitialises the server.
func (h *Handler) CopyToServer(ctx context.Context, catalogPaths, ncmlPaths []string) error {
	if _, err := h.remote(ctx, "mkdir", "-p", RemoteCatalogDest); err != nil {
		return err
	}
	for _, path := range catalogPaths {
		if err := h.rsync(ctx, normalisePath(path), RemoteCatalogDest); err != nil {
			return err
		}
	}
	for _, path := range ncmlPaths {
		if err := h.rsync(ctx, normalisePath(path), h.AggregationsDir); err != nil {
			return err
		}
	}
	return h.ReinitServer(ctx)
}

// DeleteFromServer removes the named catalogs and NcML files (paths
// relative to their remote roots) and prunes directories left empty.
func (h *Handler) DeleteFromServer(ctx context.Context, catalogPaths, ncmlPaths []string) error {
	args := []string{"rm", "-f", "--"}
	for _, p := range catalogPaths {
		args = append(args, filepath.Join(RemoteCatalogDest, p))
	}
	for _, p := range ncmlPaths {
		args = append(args, filepath.Join(h.AggregationsDir, p))
	}
	if _, err := h.remote(ctx, args...); err != nil {
		return err
	}
	for _, root := range []string{RemoteCatalogDest, h.AggregationsDir} {
		if err := h.deleteEmptyDirs(ctx, root); err != nil {
			return err
		}
	}
	return nil
}

// deleteEmptyDirs removes empty directory trees under root on the remote
// host. The root itself is kept.
func (h *Handler) deleteEmptyDirs(ctx context.Context, root string) error {
	_, err := h.remote(ctx, "find", root, "-mindepth", "1", "-type", "d", "-empty", "-delete")
	return err
}

// RetrieveCatalog returns the contents of a catalog on the remote host,
// by path relative to the catalog root.
func (h *Handler) RetrieveCatalog(ctx context.Context, path string) (string, error) {
	return h.remote(ctx, "cat", filepath.Join(RemoteCatalogDest, path))
}

// RetrieveNcML returns the contents of a remote NcML file, by path
// relative to the aggregations directory.
func (h *Handler) RetrieveNcML(ctx context.Context, path string) (string, error) {
	return h.remote(ctx, "cat", filepath.Join(h.AggregationsDir, path))
}
